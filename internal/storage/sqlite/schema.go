package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS argo_floats (
	float_id TEXT PRIMARY KEY,
	wmo_id TEXT NOT NULL,
	institution TEXT NOT NULL,
	data_mode TEXT NOT NULL DEFAULT 'R',
	deployment_date DATETIME,
	last_transmission DATETIME,
	status TEXT DEFAULT 'active',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS argo_profiles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	float_id TEXT NOT NULL,
	cycle_number INTEGER NOT NULL,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	profile_time DATETIME NOT NULL,
	data_mode TEXT,
	position_qc TEXT,
	max_depth REAL,
	min_depth REAL,
	num_levels INTEGER,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (float_id, cycle_number)
);
CREATE INDEX IF NOT EXISTS idx_profiles_position ON argo_profiles(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_profiles_time ON argo_profiles(profile_time);

CREATE TABLE IF NOT EXISTS argo_measurements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	float_id TEXT NOT NULL,
	cycle_number INTEGER NOT NULL,
	pressure REAL,
	depth REAL,
	temperature REAL,
	salinity REAL,
	oxygen REAL,
	chlorophyll REAL,
	nitrate REAL,
	ph REAL,
	temperature_qc TEXT,
	salinity_qc TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_measurements_profile ON argo_measurements(float_id, cycle_number);

CREATE TABLE IF NOT EXISTS argo_trajectories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	float_id TEXT NOT NULL,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	trajectory_time DATETIME NOT NULL,
	cycle_number INTEGER,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_trajectories_float ON argo_trajectories(float_id, trajectory_time);

CREATE TABLE IF NOT EXISTS query_logs (
	id TEXT PRIMARY KEY,
	user_query TEXT NOT NULL,
	processed_query TEXT,
	sql_query TEXT,
	response TEXT,
	execution_time REAL,
	success INTEGER NOT NULL DEFAULT 1,
	error_message TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_logs_created ON query_logs(created_at);
`
