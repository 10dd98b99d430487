package moltin

import (
	"fmt"
	"net/http"
)

// RemoteAPIError is a failed commerce call: a non-2xx status or an
// "errors" payload returned with a 2xx status.
type RemoteAPIError struct {
	Op      string
	Status  int
	Message string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("moltin %s: status %d: %s", e.Op, e.Status, e.Message)
}

// Code implements the error code contract used in handler logs.
func (e *RemoteAPIError) Code() string { return "remote_api" }

// NotFound reports whether the upstream answered 404.
func (e *RemoteAPIError) NotFound() bool { return e.Status == http.StatusNotFound }

// TransientIOError is a network-level failure reaching the commerce API.
type TransientIOError struct {
	Op  string
	Err error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("moltin %s: %v", e.Op, e.Err)
}

func (e *TransientIOError) Unwrap() error { return e.Err }

// Code implements the error code contract used in handler logs.
func (e *TransientIOError) Code() string { return "transient_io" }

// DataIntegrityError means catalog data disagree with each other, for example
// a product whose SKU is missing from the price book.
type DataIntegrityError struct {
	ProductID string
	SKU       string
	Reason    string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("moltin: product %s (sku %q): %s", e.ProductID, e.SKU, e.Reason)
}

// Code implements the error code contract used in handler logs.
func (e *DataIntegrityError) Code() string { return "data_integrity" }
