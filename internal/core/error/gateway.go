package errx

import "net/http"

// WrapGateway wraps a messaging gateway error with a consistent status and message.
func WrapGateway(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, GatewayErrorMessage)
}
