package tasks

import "github.com/desertthunder/figx/internal/models"

// LocalIDCutoff is the exclusive upper bound for local catalog ids.
//
// Local rows are told apart from external ones partly by id magnitude, so a local
// catalog that grows past this many rows starts classifying its newest movies as
// external. Known limitation; the backend sends no explicit origin.
const LocalIDCutoff = 10000

// Classify tags rec with its origin and the identifier navigation should use.
//
// A record is local only when its hint says so and it carries a positive local id
// below [LocalIDCutoff]. A zero id counts as absent. Everything else is external, keyed by tmdb_id or, failing that, id.
func Classify(rec models.MovieRecord) models.ClassifiedRecord {
	if (rec.SourceHint == models.HintLocal || rec.SourceHint == models.HintAdmin) &&
		rec.ID != nil && *rec.ID > 0 && *rec.ID < LocalIDCutoff {
		return models.ClassifiedRecord{Origin: models.OriginLocal, TargetID: *rec.ID, Record: rec}
	}

	target := 0
	switch {
	case rec.TMDBID != nil && *rec.TMDBID != 0:
		target = *rec.TMDBID
	case rec.ID != nil:
		target = *rec.ID
	}
	return models.ClassifiedRecord{Origin: models.OriginExternal, TargetID: target, Record: rec}
}

// ClassifyBatch stamps hint on every record of one fetched batch, then classifies each.
// Upstream order is kept.
func ClassifyBatch(records []models.MovieRecord, hint string) []models.ClassifiedRecord {
	out := make([]models.ClassifiedRecord, 0, len(records))
	for _, rec := range records {
		rec.SourceHint = hint
		out = append(out, Classify(rec))
	}
	return out
}
