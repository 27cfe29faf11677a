package validators

import (
	"github.com/go-playground/validator/v10"

	"rideshare/internal/models"
)

func validateChat(sl validator.StructLevel) {
	chat := sl.Current().Interface().(models.Chat)

	if len(chat.Participants) != 2 {
		return
	}
	a, b := chat.Participants[0], chat.Participants[1]
	if a == b || a > b || chat.PairKey != models.PairKey(a, b) {
		sl.ReportError(chat.Participants, "participants", "Participants", "pair_key", "")
	}
}
