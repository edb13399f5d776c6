package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// CheckSchemaCompatibility checks whether a config file written for
// schemaVersion can be loaded by a client at clientVersion.
// Returns nil if compatible, an error with details if not.
//
// Compatibility rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 loads a 1.2.5 config)
func CheckSchemaCompatibility(clientVersion, schemaVersion string) error {
	clientVersion = strings.TrimPrefix(clientVersion, "v")
	schemaVersion = strings.TrimPrefix(schemaVersion, "v")

	// Skip the check for "main" (development builds)
	if clientVersion == "main" || schemaVersion == "main" {
		return nil
	}

	clientSemver, err := semver.NewVersion(clientVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid client version '%s'", clientVersion)
	}

	schemaSemver, err := semver.NewVersion(schemaVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid schema version '%s'", schemaVersion)
	}

	if clientSemver.Major() != schemaSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"major version mismatch: client is %d.x.x but config requires %d.x.x",
			clientSemver.Major(), schemaSemver.Major())
	}

	if clientSemver.Minor() != schemaSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"minor version mismatch: client is %d.%d.x but config requires %d.%d.x",
			clientSemver.Major(), clientSemver.Minor(),
			schemaSemver.Major(), schemaSemver.Minor())
	}

	// Patch versions can differ.
	return nil
}
