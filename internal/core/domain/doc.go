// Package domain contains the core business entities and errors for the
// CyberCache resource catalogue. Types here have no dependencies on
// adapters or infrastructure.
package domain
