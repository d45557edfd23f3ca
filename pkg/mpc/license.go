package mpc

import "github.com/github/go-spdx/v2/spdxexp"

// ValidateLicenseType checks a package's license_type against the SPDX
// license list, replacing the informal string comparison the original
// tooling used. An empty license_type is allowed: not every package in
// the wild carries one.
func ValidateLicenseType(licenseType string) error {
	if licenseType == "" {
		return nil
	}
	ok, invalid := spdxexp.ValidateLicenses([]string{licenseType})
	if !ok {
		return &InvalidManifest{Message: "unknown SPDX license identifier: " + invalid[0]}
	}
	return nil
}
