package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	entry_date DATETIME NOT NULL,
	exit_date DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	holding_days INTEGER NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS screens (
	screen_id TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	as_of DATETIME NOT NULL,
	passed INTEGER NOT NULL,
	degraded INTEGER NOT NULL,
	market_cap_crore REAL NOT NULL,
	price REAL NOT NULL,
	year_low REAL NOT NULL,
	year_high REAL NOT NULL,
	month_range_pos REAL NOT NULL,
	entry REAL NOT NULL,
	stop REAL NOT NULL,
	target REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_date);
CREATE INDEX IF NOT EXISTS idx_screens_asof ON screens(as_of);
`
