package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_students",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_assessments",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_progression",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Migration 001: students
// ─────────────────────────────────────────────────────────────────────────────

const migration001Up = `
CREATE TABLE IF NOT EXISTS students (
	id UUID PRIMARY KEY,
	legacy_id BIGINT UNIQUE,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL DEFAULT '',
	grade TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_email ON students (LOWER(email));
CREATE INDEX IF NOT EXISTS idx_students_legacy_id ON students (legacy_id);
`

const migration001Down = `
DROP TABLE IF EXISTS students;
`

// ─────────────────────────────────────────────────────────────────────────────
// Migration 002: assessment content, responses, and assignments
// ─────────────────────────────────────────────────────────────────────────────

const migration002Up = `
CREATE TABLE IF NOT EXISTS assessment_definitions (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	category_id INTEGER NOT NULL DEFAULT 0,
	passing_threshold DOUBLE PRECISION NOT NULL DEFAULT 0,
	questions JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS assessment_responses (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	assessment_id TEXT NOT NULL REFERENCES assessment_definitions(id),
	status TEXT NOT NULL,
	answers JSONB NOT NULL DEFAULT '{}',
	started_at TIMESTAMP WITH TIME ZONE NOT NULL,
	completed_at TIMESTAMP WITH TIME ZONE,
	raw_score INTEGER NOT NULL DEFAULT 0,
	total_possible INTEGER NOT NULL DEFAULT 0,
	percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
	passed BOOLEAN NOT NULL DEFAULT FALSE,
	attempt_count INTEGER NOT NULL DEFAULT 0,
	correct_question_ids JSONB NOT NULL DEFAULT '[]',
	incorrect_question_ids JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	UNIQUE (student_id, assessment_id)
);

CREATE INDEX IF NOT EXISTS idx_responses_student ON assessment_responses (student_id);

CREATE TABLE IF NOT EXISTS assignment_records (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	assessment_id TEXT NOT NULL REFERENCES assessment_definitions(id),
	status TEXT NOT NULL,
	assigned_at TIMESTAMP WITH TIME ZONE NOT NULL,
	completed_at TIMESTAMP WITH TIME ZONE,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	UNIQUE (student_id, assessment_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS assignment_records;
DROP TABLE IF EXISTS assessment_responses;
DROP TABLE IF EXISTS assessment_definitions;
`

// ─────────────────────────────────────────────────────────────────────────────
// Migration 003: category progress, reading-level progression, audit log
// ─────────────────────────────────────────────────────────────────────────────

const migration003Up = `
CREATE TABLE IF NOT EXISTS category_progress (
	student_id UUID PRIMARY KEY REFERENCES students(id),
	categories JSONB NOT NULL DEFAULT '[]',
	completed_categories INTEGER NOT NULL DEFAULT 0,
	overall_progress DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reading_level_progressions (
	student_id UUID PRIMARY KEY REFERENCES students(id),
	current_level TEXT NOT NULL,
	initial_level TEXT NOT NULL,
	history JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profile_update_records (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	field TEXT NOT NULL,
	previous_value TEXT NOT NULL DEFAULT '',
	new_value TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	actor_id TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_profile_updates_student ON profile_update_records (student_id, created_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS profile_update_records;
DROP TABLE IF EXISTS reading_level_progressions;
DROP TABLE IF EXISTS category_progress;
`
