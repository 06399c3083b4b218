package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout represents request timeouts
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeDecode represents JSON decoding errors
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStorage represents sink I/O errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScraperError represents a scraper-specific error
type ScraperError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *ScraperError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *ScraperError) Unwrap() error {
	return e.Err
}

// New creates a new ScraperError
func New(errType ErrorType, component, message string, err error) *ScraperError {
	return &ScraperError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *ScraperError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewTimeout creates a new timeout error
func NewTimeout(component, message string, err error) *ScraperError {
	return New(ErrorTypeTimeout, component, message, err)
}

// NewDecode creates a new decode error
func NewDecode(component, message string, err error) *ScraperError {
	return New(ErrorTypeDecode, component, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *ScraperError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewStorage creates a new storage error
func NewStorage(component, message string, err error) *ScraperError {
	return New(ErrorTypeStorage, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *ScraperError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScraperError {
	return New(ErrorTypeConfiguration, "", message, err)
}
