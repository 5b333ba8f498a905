// Package xid generates unique string ids for invoices and expenses.
// Ids embed a timestamp plus random bytes, so a record deleted and a
// record created later can never share an id.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	PrefixInvoice = "inv"
	PrefixExpense = "exp"
)

func New(prefix string) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
