package adapter

import "errors"

// ErrMissingModel reports that neither the request nor the adapter
// configuration yields a model. Raised before any upstream call.
var ErrMissingModel = errors.New("no model specified and no default model configured")

// ErrEmptyConversation reports that message normalization produced no
// usable turns. Raised before any upstream call.
var ErrEmptyConversation = errors.New("no usable messages in request")
