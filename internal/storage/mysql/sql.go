package mysql

const createMissesSQL = `
CREATE TABLE IF NOT EXISTS triposo_misses (
  query_hash  CHAR(40)      NOT NULL,
  resource    VARCHAR(64)   NOT NULL,
  query       TEXT          NOT NULL,
  hits        INT UNSIGNED  NOT NULL DEFAULT 1,
  first_seen  TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_seen   TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (query_hash),
  KEY idx_misses_last_seen (last_seen)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

// query_hash covers resource and query; see missKey.
const insertMissSQL = `
INSERT INTO triposo_misses (query_hash, resource, query)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  hits      = hits + 1,
  last_seen = CURRENT_TIMESTAMP
`

const listMissesSQL = `
SELECT resource, query, hits, last_seen
FROM triposo_misses
ORDER BY last_seen DESC, hits DESC
LIMIT ?
`
