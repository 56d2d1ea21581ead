package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		statements := []string{
			`CREATE TABLE IF NOT EXISTS portfolios (
				id uuid PRIMARY KEY,
				user_id text NOT NULL,
				title text NOT NULL,
				status text NOT NULL,
				image_count integer NOT NULL DEFAULT 0,
				created_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS portfolio_images (
				id uuid PRIMARY KEY,
				portfolio_id uuid NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
				content_hash text NOT NULL,
				url text NOT NULL,
				width integer,
				height integer,
				uploaded_at timestamptz NOT NULL DEFAULT now(),
				UNIQUE (portfolio_id, content_hash)
			)`,
			`CREATE TABLE IF NOT EXISTS ultra_detailed_descriptors (
				id uuid PRIMARY KEY,
				image_id uuid NOT NULL UNIQUE REFERENCES portfolio_images(id) ON DELETE CASCADE,
				user_id text NOT NULL,
				executive_summary jsonb NOT NULL,
				garments jsonb NOT NULL,
				model_demographics jsonb NOT NULL,
				photography jsonb NOT NULL,
				styling_context jsonb NOT NULL,
				contextual_attributes jsonb NOT NULL,
				technical_fashion_notes text,
				metadata jsonb NOT NULL,
				overall_confidence numeric(4,3) NOT NULL,
				completeness_percentage numeric(5,2) NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS style_profiles (
				id uuid PRIMARY KEY,
				user_id text NOT NULL UNIQUE,
				portfolio_id uuid NOT NULL,
				distributions jsonb NOT NULL,
				aesthetic_themes jsonb NOT NULL,
				construction_patterns jsonb NOT NULL,
				signature_pieces jsonb NOT NULL,
				style_tags jsonb NOT NULL,
				garment_types jsonb NOT NULL,
				style_description text NOT NULL,
				avg_confidence numeric(4,3) NOT NULL,
				avg_completeness numeric(5,2) NOT NULL,
				model_gender_preference jsonb NOT NULL,
				updated_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS token_weights (
				user_id text NOT NULL,
				category text NOT NULL,
				token text NOT NULL,
				weight numeric(3,2) NOT NULL DEFAULT 1.0,
				usage_count bigint NOT NULL DEFAULT 0,
				positive_feedback bigint NOT NULL DEFAULT 0,
				negative_feedback bigint NOT NULL DEFAULT 0,
				updated_at timestamptz NOT NULL DEFAULT now(),
				PRIMARY KEY (user_id, category, token)
			)`,
			`CREATE TABLE IF NOT EXISTS feedback_events (
				id uuid PRIMARY KEY,
				user_id text NOT NULL,
				image_id uuid NOT NULL,
				generation_id uuid NOT NULL,
				type text NOT NULL,
				tokens_used jsonb NOT NULL,
				reward numeric(3,2) NOT NULL,
				time_viewed_ms bigint,
				created_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS generations (
				id uuid PRIMARY KEY,
				user_id text NOT NULL,
				prompt_text text NOT NULL,
				negative_prompt text NOT NULL,
				metadata jsonb NOT NULL,
				provider_id text,
				status text NOT NULL,
				cost numeric(10,4) NOT NULL DEFAULT 0,
				created_at timestamptz NOT NULL DEFAULT now(),
				completed_at timestamptz
			)`,
			`CREATE TABLE IF NOT EXISTS generation_assets (
				id uuid PRIMARY KEY,
				generation_id uuid NOT NULL REFERENCES generations(id) ON DELETE CASCADE,
				url text NOT NULL,
				prompt_index integer NOT NULL,
				provider_id text,
				file_size bigint,
				created_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS ai_usage_daily (
				date text NOT NULL,
				model text NOT NULL,
				prompt_tokens bigint NOT NULL DEFAULT 0,
				completion_tokens bigint NOT NULL DEFAULT 0,
				request_count bigint NOT NULL DEFAULT 0,
				cost_usd numeric(10,4) NOT NULL DEFAULT 0,
				PRIMARY KEY (date, model)
			)`,
		}

		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("run initial schema statement: %w", err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS
			ai_usage_daily, generation_assets, generations, feedback_events,
			token_weights, style_profiles, ultra_detailed_descriptors,
			portfolio_images, portfolios CASCADE`)
		return err
	})
}
