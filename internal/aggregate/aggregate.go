// Package aggregate folds upload outcomes into a batch result.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// Aggregate folds outcomes into a BatchResult.
//
// Outcomes arrive in completion order, so they are first stable-sorted by
// destination key (source path breaks ties) and then folded; "last one wins"
// for the installer, change-log and version fields therefore refers to that
// order and the result is the same on every run. Metadata is taken from every
// outcome, including failed ones. AllSucceeded is true iff no outcome failed,
// which holds vacuously for an empty batch.
func Aggregate(outcomes []releasetypes.UploadOutcome) *releasetypes.BatchResult {
	sorted := slices.Clone(outcomes)
	slices.SortStableFunc(sorted, func(a, b releasetypes.UploadOutcome) int {
		return cmp.Or(
			cmp.Compare(a.Task.DestinationKey, b.Task.DestinationKey),
			cmp.Compare(a.Task.SourcePath, b.Task.SourcePath),
		)
	})

	result := &releasetypes.BatchResult{
		AllSucceeded: true,
		Outcomes:     sorted,
	}

	for _, o := range sorted {
		if o.Succeeded {
			result.FilesUploaded++
			result.BytesUploaded += o.Task.Size
		} else {
			result.AllSucceeded = false
			result.FilesFailed++
		}

		switch o.Task.Kind {
		case releasetypes.KindInstaller:
			result.InstallerKey = o.Task.DestinationKey
		case releasetypes.KindChangeLog:
			result.ChangeLog = o.Task.Content
		case releasetypes.KindVersion:
			result.Version = o.Task.Content
		case releasetypes.KindRegular:
		}
	}

	return result
}
