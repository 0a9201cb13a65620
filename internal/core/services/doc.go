// Package services contains the core application logic: the catalogue
// ingestion pipeline and the classifier fallback chain. Services depend on
// ports only, never on concrete adapters.
package services
