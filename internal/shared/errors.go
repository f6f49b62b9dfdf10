package shared

import (
	"fmt"

	"github.com/turbovets/taskboard/internal/platform/httpx"
)

// ErrInvalidCredentials indicates login failure without saying which field
// was wrong.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)
