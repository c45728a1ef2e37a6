// internal/app/store/users/score.go
package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// AdjustOptions describes one score adjustment.
type AdjustOptions struct {
	Motivo        string
	Actividad     *primitive.ObjectID
	RegistradoPor *primitive.ObjectID
	// DedupePerActivity makes the adjustment a no-op for users whose
	// history already references Actividad, so re-running a scoring pass
	// never double-counts anyone.
	DedupePerActivity bool
}

// AdjustResult reports what a score adjustment did.
type AdjustResult struct {
	// Applied is true when the user's score actually changed.
	Applied bool
	// Found is true when the user exists; Found && !Applied means the
	// adjustment was deduplicated.
	Found bool
}

// AdjustScore applies delta to a user's score in a single conditional
// update: the $inc, the history push (newest first, capped), and the
// per-activity dedupe check all happen atomically on the server.
func (s *Store) AdjustScore(ctx context.Context, userID primitive.ObjectID, delta float64, opts AdjustOptions) (AdjustResult, error) {
	now := time.Now().UTC()
	entry := models.PointsEntry{
		Delta:         delta,
		Motivo:        opts.Motivo,
		Actividad:     opts.Actividad,
		RegistradoPor: opts.RegistradoPor,
		Fecha:         now,
	}

	filter := bson.M{"_id": userID}
	if opts.DedupePerActivity && opts.Actividad != nil {
		filter["historialPuntos.actividad"] = bson.M{"$ne": *opts.Actividad}
	}

	update := bson.M{
		"$inc": bson.M{"puntos": delta},
		"$push": bson.M{
			"historialPuntos": bson.M{
				"$each":     []models.PointsEntry{entry},
				"$position": 0,
				"$slice":    models.MaxPointsHistory,
			},
		},
		"$set": bson.M{"actualizadoEn": now},
	}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return AdjustResult{}, err
	}
	if res.MatchedCount == 1 {
		return AdjustResult{Applied: true, Found: true}, nil
	}

	// Nothing matched: either the user does not exist or the dedupe
	// condition filtered them out.
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return AdjustResult{}, err
	}
	return AdjustResult{Applied: false, Found: n > 0}, nil
}

// Score returns a user's current score and history (newest first).
func (s *Store) Score(ctx context.Context, userID primitive.ObjectID) (float64, []models.PointsEntry, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	return u.Puntos, u.HistorialPuntos, nil
}
