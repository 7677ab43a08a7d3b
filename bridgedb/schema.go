package bridgedb

var (
	monitorCursorTable = `CREATE TABLE IF NOT EXISTS monitorCursor (
		programId VARCHAR(44) PRIMARY KEY NOT NULL,
		signature VARCHAR(88) NOT NULL,
		slot INTEGER NOT NULL,
		updatedAt INTEGER NOT NULL
	);`

	// amounts are u64 and kept as decimal text
	mintEventTable = `CREATE TABLE IF NOT EXISTS mintEvent (
		signature VARCHAR(88) NOT NULL,
		eventIndex INTEGER NOT NULL,
		slot INTEGER NOT NULL,
		receiver VARCHAR(44) NOT NULL,
		amount TEXT NOT NULL,
		UNIQUE (signature, eventIndex)
	);
	CREATE INDEX IF NOT EXISTS idx_mint_receiver ON mintEvent(receiver);`

	burnEventTable = `CREATE TABLE IF NOT EXISTS burnEvent (
		signature VARCHAR(88) NOT NULL,
		eventIndex INTEGER NOT NULL,
		slot INTEGER NOT NULL,
		sender VARCHAR(44) NOT NULL,
		btcAddr TEXT NOT NULL,
		amount TEXT NOT NULL,
		operatorId TEXT NOT NULL,
		UNIQUE (signature, eventIndex)
	);
	CREATE INDEX IF NOT EXISTS idx_burn_btcAddr ON burnEvent(btcAddr);`
)
