package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
)

// CheckReportCompatibility checks whether a backtest report written by reportVersion
// can be read by libraryVersion. Returns nil if compatible.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The report's minor version must not be newer than the library's
//   - Patch versions can differ
//
// Examples:
//   - Library 0.4.0, Report 0.4.2 -> OK (patch differs)
//   - Library 0.4.0, Report 0.3.0 -> OK (older report)
//   - Library 0.4.0, Report 0.5.0 -> ERROR (report is newer)
//   - Library 1.0.0, Report 0.4.0 -> ERROR (major differs)
func CheckReportCompatibility(libraryVersion, reportVersion string) error {
	libraryVersion = strings.TrimPrefix(libraryVersion, "v")
	reportVersion = strings.TrimPrefix(reportVersion, "v")

	if libraryVersion == "main" || reportVersion == "main" {
		return nil
	}

	librarySemver, err := semver.NewVersion(libraryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid library version '%s'", libraryVersion)
	}

	reportSemver, err := semver.NewVersion(reportVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid report version '%s'", reportVersion)
	}

	if librarySemver.Major() != reportSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "major version mismatch: library is %d.x.x but report was written by %d.x.x",
			librarySemver.Major(), reportSemver.Major())
	}

	if reportSemver.Minor() > librarySemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "report is newer than library: library is %d.%d.x but report was written by %d.%d.x",
			librarySemver.Major(), librarySemver.Minor(),
			reportSemver.Major(), reportSemver.Minor())
	}

	return nil
}
