// internal/app/system/indexes/indexes.go
//
// Package indexes declares and reconciles the MongoDB indexes the
// application depends on. EnsureAll runs during the schema phase of
// startup, before the HTTP listener comes up.
package indexes

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll creates every required index, collecting per-collection
// failures so one bad collection does not hide the rest.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var errs []error

	ensure := func(coll string, models []mongo.IndexModel) {
		if err := ensureIndexSet(ctx, db.Collection(coll), models); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", coll, err))
		}
	}

	ensure("usuarios", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "correoUniversitario", Value: 1}},
			Options: options.Index().SetName("uniq_correo").SetUnique(true),
		},
		{
			// Leaderboard: students ranked by score.
			Keys:    bson.D{{Key: "rol", Value: 1}, {Key: "puntos", Value: -1}},
			Options: options.Index().SetName("idx_rol_puntos"),
		},
	})

	ensure("actividades", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "estado", Value: 1}, {Key: "fechaInicio", Value: 1}},
			Options: options.Index().SetName("idx_estado_fecha"),
		},
		{
			Keys:    bson.D{{Key: "area", Value: 1}},
			Options: options.Index().SetName("idx_area"),
		},
	})

	ensure("inscripciones", []mongo.IndexModel{
		{
			// One enrollment per user per activity, in any state.
			Keys:    bson.D{{Key: "usuario", Value: 1}, {Key: "actividad", Value: 1}},
			Options: options.Index().SetName("uniq_usuario_actividad").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "actividad", Value: 1}, {Key: "estado", Value: 1}},
			Options: options.Index().SetName("idx_actividad_estado"),
		},
		{
			Keys:    bson.D{{Key: "usuario", Value: 1}, {Key: "estado", Value: 1}},
			Options: options.Index().SetName("idx_usuario_estado"),
		},
	})

	ensure("registrosAsistencia", []mongo.IndexModel{
		{
			// A single attendance sheet per activity.
			Keys:    bson.D{{Key: "actividad", Value: 1}},
			Options: options.Index().SetName("uniq_actividad").SetUnique(true),
		},
	})

	ensure("reportesImpacto", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idActividad", Value: 1}},
			Options: options.Index().SetName("uniq_actividad").SetUnique(true),
		},
	})

	ensure("registrationRequests", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "correoUniversitario", Value: 1}},
			Options: options.Index().SetName("uniq_correo").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "creadoEn", Value: -1}},
			Options: options.Index().SetName("idx_status_creado"),
		},
	})

	ensure("passwordResetTokens", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("uniq_token").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("ttl_expires").SetExpireAfterSeconds(0),
		},
	})

	ensure("auditEvents", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_created"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_category_created"),
		},
	})

	return errors.Join(errs...)
}

// ensureIndexSet creates the given indexes one at a time. An index whose
// name already exists with a different definition is dropped and
// recreated so definition changes roll out without manual migration.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	log := zap.L().With(zap.String("collection", coll.Name()))

	for _, model := range models {
		name := ""
		if model.Options != nil && model.Options.Name != nil {
			name = *model.Options.Name
		}
		_, err := coll.Indexes().CreateOne(ctx, model)
		if err == nil {
			continue
		}
		if !indexConflict(err) {
			return fmt.Errorf("create index %q: %w", name, err)
		}

		log.Info("recreating index with changed definition", zap.String("index", name))
		if _, dropErr := coll.Indexes().DropOne(ctx, name); dropErr != nil {
			return fmt.Errorf("drop conflicting index %q: %w", name, dropErr)
		}
		if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("recreate index %q: %w", name, err)
		}
	}
	return nil
}

// indexConflict reports whether err is Mongo complaining that an index of
// the same name exists with different options or keys (codes 85 and 86).
func indexConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 85 || cmdErr.Code == 86
	}
	return false
}
