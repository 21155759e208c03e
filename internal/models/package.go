package models

import (
	"strings"
	"time"
)

type Package struct {
	ID             string
	Name           string
	PricePerPage   int64
	TurnaroundDays int
}

// Packages загружается один раз при старте и дальше только читается.
var Packages = []Package{
	{ID: "1", Name: "Basic", PricePerPage: 50000, TurnaroundDays: 7},
	{ID: "2", Name: "Standard", PricePerPage: 75000, TurnaroundDays: 5},
	{ID: "3", Name: "Premium", PricePerPage: 120000, TurnaroundDays: 2},
}

// FindPackage accepts either the slider id or the package name, case-insensitively.
func FindPackage(identifier string) (Package, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Package{}, false
	}
	for _, pkg := range Packages {
		if pkg.ID == identifier || strings.EqualFold(pkg.Name, identifier) {
			return pkg, true
		}
	}
	return Package{}, false
}

func (p Package) TotalPrice(pageCount int32) int64 {
	return int64(pageCount) * p.PricePerPage
}

func (p Package) EstimatedDelivery(from time.Time) time.Time {
	return from.Add(time.Duration(p.TurnaroundDays) * 24 * time.Hour)
}
