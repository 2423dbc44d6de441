package indexer

import "github.com/findit-app/findit/internal/models"

// SkipSet names layers a caller wants to opt out of for a given run
// (e.g. "no VLM calls this pass"), per spec.md §4.1's "configured skip set".
type SkipSet map[models.Layer]bool

// NextLayer decides the next layer to run for video, or (-1, false) if
// nothing applicable remains, per spec.md §4.1's resume rule: "run layer L
// iff L is applicable for the media type, L > current index_layer, and L is
// not in the configured skip set."
func NextLayer(mediaType models.MediaType, currentLayer models.Layer, skip SkipSet) (models.Layer, bool) {
	for l := currentLayer + 1; l <= models.LayerTextDescription; l++ {
		if !models.AppliesToLayer(mediaType, l) {
			continue
		}
		if skip != nil && skip[l] {
			continue
		}
		return l, true
	}
	return models.LayerNone, false
}

// completionStatus maps a just-finished layer to the IndexStatus value
// persisted alongside index_layer, per the Video status enum in spec.md §3.
func completionStatus(l models.Layer) models.IndexStatus {
	switch l {
	case models.LayerMetadata:
		return models.StatusMetadataDone
	case models.LayerClipVector:
		return models.StatusVectorsDone
	case models.LayerSTT:
		return models.StatusSTTDone
	case models.LayerTextDescription:
		return models.StatusCompleted
	}
	return models.StatusPending
}
