package store

// SchemaSQLite is applied on every open; all statements are idempotent.
const SchemaSQLite = `
CREATE TABLE IF NOT EXISTS charts (
	id INTEGER PRIMARY KEY,
	filter_method TEXT NOT NULL,
	year INTEGER NOT NULL DEFAULT 0, -- 0 means all years
	sort_method TEXT NOT NULL,
	UNIQUE (filter_method, year, sort_method)
);

CREATE TABLE IF NOT EXISTS artists (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	profile_link TEXT,
	popularity INTEGER,
	followers INTEGER
);

CREATE TABLE IF NOT EXISTS publishers (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	profile_link TEXT
);

CREATE TABLE IF NOT EXISTS summaries (
	id INTEGER PRIMARY KEY,
	summary TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS genres (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS markets (
	id INTEGER PRIMARY KEY,
	code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS albums (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	page_link TEXT,
	details_link TEXT,
	purchase_link TEXT,
	release_date DATE,
	track_count INTEGER,
	artist_id INTEGER NOT NULL REFERENCES artists(id),
	publisher_id INTEGER REFERENCES publishers(id),
	summary_id INTEGER REFERENCES summaries(id),
	UNIQUE (artist_id, name)
);

CREATE TABLE IF NOT EXISTS album_genres (
	album_id INTEGER NOT NULL REFERENCES albums(id),
	genre_id INTEGER NOT NULL REFERENCES genres(id),
	PRIMARY KEY (album_id, genre_id)
);

CREATE TABLE IF NOT EXISTS album_markets (
	album_id INTEGER NOT NULL REFERENCES albums(id),
	market_id INTEGER NOT NULL REFERENCES markets(id),
	PRIMARY KEY (album_id, market_id)
);

CREATE TABLE IF NOT EXISTS chart_history (
	id INTEGER PRIMARY KEY,
	scraped_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	chart_id INTEGER NOT NULL REFERENCES charts(id),
	album_id INTEGER NOT NULL REFERENCES albums(id),
	album_rank INTEGER NOT NULL,
	metascore INTEGER,
	user_score REAL,
	critic_reviews INTEGER,
	user_reviews INTEGER
);

CREATE INDEX IF NOT EXISTS idx_chart_history_chart ON chart_history(chart_id);
CREATE INDEX IF NOT EXISTS idx_chart_history_album ON chart_history(album_id);

CREATE TABLE IF NOT EXISTS cache (
	cache_key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);
`

// SchemaPostgres mirrors SchemaSQLite. Summary text is unique through an md5 index
// because btree entries cannot hold arbitrarily long text.
const SchemaPostgres = `
CREATE TABLE IF NOT EXISTS charts (
	id BIGSERIAL PRIMARY KEY,
	filter_method TEXT NOT NULL,
	year INTEGER NOT NULL DEFAULT 0,
	sort_method TEXT NOT NULL,
	UNIQUE (filter_method, year, sort_method)
);

CREATE TABLE IF NOT EXISTS artists (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	profile_link TEXT,
	popularity INTEGER,
	followers INTEGER
);

CREATE TABLE IF NOT EXISTS publishers (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	profile_link TEXT
);

CREATE TABLE IF NOT EXISTS summaries (
	id BIGSERIAL PRIMARY KEY,
	summary TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_summaries_md5 ON summaries (md5(summary));

CREATE TABLE IF NOT EXISTS genres (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS markets (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS albums (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	page_link TEXT,
	details_link TEXT,
	purchase_link TEXT,
	release_date DATE,
	track_count INTEGER,
	artist_id BIGINT NOT NULL REFERENCES artists(id),
	publisher_id BIGINT REFERENCES publishers(id),
	summary_id BIGINT REFERENCES summaries(id),
	UNIQUE (artist_id, name)
);

CREATE TABLE IF NOT EXISTS album_genres (
	album_id BIGINT NOT NULL REFERENCES albums(id),
	genre_id BIGINT NOT NULL REFERENCES genres(id),
	PRIMARY KEY (album_id, genre_id)
);

CREATE TABLE IF NOT EXISTS album_markets (
	album_id BIGINT NOT NULL REFERENCES albums(id),
	market_id BIGINT NOT NULL REFERENCES markets(id),
	PRIMARY KEY (album_id, market_id)
);

CREATE TABLE IF NOT EXISTS chart_history (
	id BIGSERIAL PRIMARY KEY,
	scraped_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	chart_id BIGINT NOT NULL REFERENCES charts(id),
	album_id BIGINT NOT NULL REFERENCES albums(id),
	album_rank INTEGER NOT NULL,
	metascore INTEGER,
	user_score DOUBLE PRECISION,
	critic_reviews INTEGER,
	user_reviews INTEGER
);

CREATE INDEX IF NOT EXISTS idx_chart_history_chart ON chart_history(chart_id);
CREATE INDEX IF NOT EXISTS idx_chart_history_album ON chart_history(album_id);

CREATE TABLE IF NOT EXISTS cache (
	cache_key TEXT PRIMARY KEY,
	data BYTEA,
	expires_at TIMESTAMPTZ
);
`
