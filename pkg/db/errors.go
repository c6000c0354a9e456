package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsNotFound reports whether the error is GORM's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// txUnsupportedFragments are error-message signatures emitted by stores that
// cannot run multi-statement transactions (single-node / standalone
// deployments). Detection is by message inspection, same as the driver gives
// us nothing more structured to go on.
var txUnsupportedFragments = []string{
	"transactions are not supported",
	"transactions not supported",
	"does not support transactions",
	"transaction numbers are only allowed",
}

// IsTxUnsupported reports whether the error indicates the underlying store
// cannot open a transaction at all, as opposed to a transaction that failed.
// Callers use this to reroute to a non-transactional execution path.
func IsTxUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range txUnsupportedFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
