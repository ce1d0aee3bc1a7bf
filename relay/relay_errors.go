package relay

import "errors"

var (
	InvalidRequestErr      = errors.New("invalid request")
	UnauthorizedPartnerErr = errors.New("unauthorized partner")
)
