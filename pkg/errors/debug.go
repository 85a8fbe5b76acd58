package errors

import (
	"errors"
	"fmt"
)

// ErrorDump is the log-friendly view of an error chain.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamPath   string `json:"upstream_path,omitempty"`
}

// UpstreamFailure is implemented by errors raised while talking to the PDV API.
type UpstreamFailure interface {
	error
	UpstreamStatus() int
	UpstreamPath() string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var upstream UpstreamFailure
	if errors.As(err, &upstream) {
		d.UpstreamStatus = upstream.UpstreamStatus()
		d.UpstreamPath = upstream.UpstreamPath()
	}

	return d
}
