package entities

import "errors"

var (
	// ErrMissingCredential means no model-backed capability could be built.
	ErrMissingCredential = errors.New("missing credential")

	// ErrResourceNotReady means a capability's backing resource is absent or
	// still being prepared.
	ErrResourceNotReady = errors.New("resource not ready")

	// ErrPreconditionViolation means a collaborator was used out of order,
	// e.g. asking a document question before a document was loaded.
	ErrPreconditionViolation = errors.New("precondition violation")

	// ErrModelInvocation wraps failures of the language-model or retrieval call.
	ErrModelInvocation = errors.New("model invocation failed")

	// ErrOutputParse means structured tool output failed validation.
	ErrOutputParse = errors.New("output parse error")
)
