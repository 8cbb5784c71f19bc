// Package models holds the GORM rows of the billing tables and their
// conversion to and from domain types. Domain types carry no GORM tags.
package models
