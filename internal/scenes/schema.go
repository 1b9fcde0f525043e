package scenes

// Session-scoped schema; there is no migration story because the database
// never outlives the process.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS scenes (
    id INTEGER PRIMARY KEY,
    text TEXT NOT NULL,
    image_ref TEXT NOT NULL,
    video_ref TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    last_animated_at TEXT
);
`
