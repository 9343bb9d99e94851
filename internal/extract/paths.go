package extract

import "path/filepath"

// Layout resolves the on-disk locations the data search engine reads
// and writes, per spec §6.3.
type Layout struct {
	Root string // output root, typically "./data"
}

// TableDir is <root>/<table>/data_search, the directory holding one
// table's raw and parsed CSVs.
func (l Layout) TableDir(table string) string {
	return filepath.Join(l.Root, table, "data_search")
}

// RawCSV is <table>.csv: the unprojected SELECT * output.
func (l Layout) RawCSV(table string) string {
	return filepath.Join(l.TableDir(table), table+".csv")
}

// ParsedCSV is <table>_parsed.csv: the projection onto the needed-FK
// column set, with a header row.
func (l Layout) ParsedCSV(table string) string {
	return filepath.Join(l.TableDir(table), table+"_parsed.csv")
}

// BulkCopyCSV is the file the external psql-compatible \copy path
// writes to for table.
func (l Layout) BulkCopyCSV(table string) string {
	return filepath.Join(l.Root, table+"_bulk_copy.csv")
}

// GraphInfoPath is the debug dump of table lists and emitted \copy
// commands.
func (l Layout) GraphInfoPath() string {
	return filepath.Join(l.Root, "graph-info.txt")
}
