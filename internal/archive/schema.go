package archive

// schemaSQL defines the archive tables. A session records which transcript
// collection and voice were in play; each turn keeps the spoken question, the
// standalone rewrite that went to retrieval and the witness answer.
const schemaSQL = `
    DEFINE TABLE IF NOT EXISTS session SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS collection ON session TYPE string;
    DEFINE FIELD IF NOT EXISTS voice ON session TYPE string;
    DEFINE FIELD IF NOT EXISTS started ON session TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS session_started ON session FIELDS started;

    DEFINE TABLE IF NOT EXISTS turn SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS session ON turn TYPE record<session>;
    DEFINE FIELD IF NOT EXISTS request_id ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS question ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS standalone ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS answer ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS asked ON turn TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS turn_session ON turn FIELDS session;
    DEFINE INDEX IF NOT EXISTS turn_asked ON turn FIELDS asked;
`
