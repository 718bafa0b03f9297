// Package xsdpack compiles sets of XML Schema (XSD) documents into a
// resolved, indexed repository that can be persisted as a package and
// reloaded without re-parsing.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., etree/, sqlite/, yaml/).
package xsdpack
