package gateway

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ClientOrderID identifies an order within a session. The gateway echoes it
// back on every report for the order, so it must be unique per session.
type ClientOrderID string

// NewClientOrderID generates a random ClientOrderID.
func NewClientOrderID() ClientOrderID {
	return ClientOrderID(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// maxClientOrderIDLen mirrors the gateway-side column width.
const maxClientOrderIDLen = 32

func (id ClientOrderID) Validate() error {
	if id == "" {
		return errors.New("client order id is empty")
	}
	if len(id) > maxClientOrderIDLen {
		return errors.New("client order id exceeds " + strconv.Itoa(maxClientOrderIDLen) + " characters: " + string(id))
	}
	return nil
}

func (id ClientOrderID) String() string { return string(id) }
