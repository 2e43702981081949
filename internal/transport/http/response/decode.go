package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/authlane/auth-server/internal/domain"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// DecodeJSON decodes a JSON request body into dst.
// Fields dst does not declare are ignored; trailing JSON values are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))

	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidJSON(err)
	}

	// Disallow trailing data: {}{}
	// Decode one more time; it must be EOF.
	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ErrInvalidJSON(err)
	}

	return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be absent.
// An empty body leaves dst untouched.
func DecodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	err := DecodeJSON(r, dst)
	var de *domain.Error
	if errors.As(err, &de) && errors.Is(de.Cause, io.EOF) {
		return nil
	}
	return err
}
