package services

import "time"

const defaultStoreTimeout = 5 * time.Second

func storeTimeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultStoreTimeout
	}
	return d
}
