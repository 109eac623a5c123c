package order

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// IDGenerator yields fresh order ids.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// RandomIDs is the default generator: "ORD-" followed by twelve upper-case
// hex characters taken from a random UUID.
var RandomIDs IDGenerator = IDGeneratorFunc(NewID)

func NewID() string {
	u := uuid.New()
	return "ORD-" + strings.ToUpper(hex.EncodeToString(u[:6]))
}
