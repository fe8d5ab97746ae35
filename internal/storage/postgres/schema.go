package postgres

const schema = `
CREATE TABLE IF NOT EXISTS argo_floats (
	float_id TEXT PRIMARY KEY,
	wmo_id TEXT NOT NULL,
	institution TEXT NOT NULL,
	data_mode TEXT NOT NULL DEFAULT 'R',
	deployment_date TIMESTAMPTZ,
	last_transmission TIMESTAMPTZ,
	status TEXT DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS argo_profiles (
	id BIGSERIAL PRIMARY KEY,
	float_id TEXT NOT NULL REFERENCES argo_floats(float_id),
	cycle_number INTEGER NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	profile_time TIMESTAMPTZ NOT NULL,
	data_mode TEXT,
	position_qc TEXT,
	max_depth DOUBLE PRECISION,
	min_depth DOUBLE PRECISION,
	num_levels INTEGER,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (float_id, cycle_number)
);
CREATE INDEX IF NOT EXISTS idx_profiles_position ON argo_profiles(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_profiles_time ON argo_profiles(profile_time);

CREATE TABLE IF NOT EXISTS argo_measurements (
	id BIGSERIAL PRIMARY KEY,
	float_id TEXT NOT NULL,
	cycle_number INTEGER NOT NULL,
	pressure DOUBLE PRECISION,
	depth DOUBLE PRECISION,
	temperature DOUBLE PRECISION,
	salinity DOUBLE PRECISION,
	oxygen DOUBLE PRECISION,
	chlorophyll DOUBLE PRECISION,
	nitrate DOUBLE PRECISION,
	ph DOUBLE PRECISION,
	temperature_qc TEXT,
	salinity_qc TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_measurements_profile ON argo_measurements(float_id, cycle_number);

CREATE TABLE IF NOT EXISTS argo_trajectories (
	id BIGSERIAL PRIMARY KEY,
	float_id TEXT NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	trajectory_time TIMESTAMPTZ NOT NULL,
	cycle_number INTEGER,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_trajectories_float ON argo_trajectories(float_id, trajectory_time);

CREATE TABLE IF NOT EXISTS query_logs (
	id TEXT PRIMARY KEY,
	user_query TEXT NOT NULL,
	processed_query TEXT,
	sql_query TEXT,
	response TEXT,
	execution_time DOUBLE PRECISION,
	success BOOLEAN NOT NULL DEFAULT TRUE,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_query_logs_created ON query_logs(created_at);
`
