/*
BridgeDB records the events seen by the solana monitor and the monitor's
watermark in SQLite.

Events are inserted with INSERT OR IGNORE so replays of the same
transaction are harmless.
*/
package bridgedb

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/bridge-go-solana/database"
	"github.com/TEENet-io/bridge-go-solana/solsync"
)

type BridgeDB struct {
	stmtCache *database.StmtCache
}

func NewBridgeDB(db *sql.DB) (*BridgeDB, error) {
	if _, err := db.Exec(monitorCursorTable + mintEventTable + burnEventTable); err != nil {
		return nil, err
	}

	return &BridgeDB{
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (db *BridgeDB) Close() {
	db.stmtCache.Clear()
}

func (db *BridgeDB) LoadWatermark(program solana.PublicKey) (solana.Signature, bool, error) {
	query := `SELECT signature FROM monitorCursor WHERE programId = ?`
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return solana.Signature{}, false, err
	}

	var sigStr string
	if err := stmt.QueryRow(program.String()).Scan(&sigStr); err != nil {
		if err == sql.ErrNoRows {
			return solana.Signature{}, false, nil
		}
		return solana.Signature{}, false, err
	}

	sig, err := solana.SignatureFromBase58(sigStr)
	if err != nil {
		return solana.Signature{}, false, err
	}
	return sig, true, nil
}

func (db *BridgeDB) SaveWatermark(program solana.PublicKey, sig solana.Signature, slot uint64) error {
	query := `INSERT INTO monitorCursor (programId, signature, slot, updatedAt) VALUES (?, ?, ?, ?)
	ON CONFLICT(programId) DO UPDATE SET signature = excluded.signature, slot = excluded.slot, updatedAt = excluded.updatedAt`
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(program.String(), sig.String(), int64(slot), time.Now().Unix())
	return err
}

func (db *BridgeDB) InsertMint(rec *MintRecord) error {
	query := `INSERT OR IGNORE INTO mintEvent (signature, eventIndex, slot, receiver, amount) VALUES (?, ?, ?, ?, ?)`
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	res, err := stmt.Exec(rec.Signature, rec.EventIndex, int64(rec.Slot), rec.Receiver, strconv.FormatUint(rec.Amount, 10))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logger.WithField("signature", rec.Signature).Debug("mint event already recorded, skip.")
	}
	return nil
}

func (db *BridgeDB) InsertBurn(rec *BurnRecord) error {
	query := `INSERT OR IGNORE INTO burnEvent (signature, eventIndex, slot, sender, btcAddr, amount, operatorId) VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	res, err := stmt.Exec(
		rec.Signature,
		rec.EventIndex,
		int64(rec.Slot),
		rec.Sender,
		rec.BtcAddr,
		strconv.FormatUint(rec.Amount, 10),
		strconv.FormatUint(rec.OperatorID, 10),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logger.WithField("signature", rec.Signature).Debug("burn event already recorded, skip.")
	}
	return nil
}

// OnMint makes BridgeDB a solsync.Handler.
func (db *BridgeDB) OnMint(ctx context.Context, ev *solsync.MintedEvent) error {
	return db.InsertMint(&MintRecord{
		Signature:  ev.Signature.String(),
		EventIndex: ev.Index,
		Slot:       ev.Slot,
		Receiver:   ev.Receiver,
		Amount:     ev.Amount,
	})
}

func (db *BridgeDB) OnBurn(ctx context.Context, ev *solsync.BurnedEvent) error {
	return db.InsertBurn(&BurnRecord{
		Signature:  ev.Signature.String(),
		EventIndex: ev.Index,
		Slot:       ev.Slot,
		Sender:     ev.Sender,
		BtcAddr:    ev.BtcAddr,
		Amount:     ev.Amount,
		OperatorID: ev.OperatorID,
	})
}

func (db *BridgeDB) GetMintsBySignature(sig string) ([]MintRecord, error) {
	return db.queryMints(`SELECT signature, eventIndex, slot, receiver, amount FROM mintEvent WHERE signature = ? ORDER BY slot, eventIndex`, sig)
}

func (db *BridgeDB) GetMintsByReceiver(receiver string) ([]MintRecord, error) {
	return db.queryMints(`SELECT signature, eventIndex, slot, receiver, amount FROM mintEvent WHERE receiver = ? ORDER BY slot, eventIndex`, receiver)
}

func (db *BridgeDB) GetBurnsBySignature(sig string) ([]BurnRecord, error) {
	return db.queryBurns(`SELECT signature, eventIndex, slot, sender, btcAddr, amount, operatorId FROM burnEvent WHERE signature = ? ORDER BY slot, eventIndex`, sig)
}

func (db *BridgeDB) GetBurnsByBtcAddr(btcAddr string) ([]BurnRecord, error) {
	return db.queryBurns(`SELECT signature, eventIndex, slot, sender, btcAddr, amount, operatorId FROM burnEvent WHERE btcAddr = ? ORDER BY slot, eventIndex`, btcAddr)
}

func (db *BridgeDB) queryMints(query string, arg string) ([]MintRecord, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []MintRecord
	for rows.Next() {
		var (
			rec    MintRecord
			slot   int64
			amount string
		)
		if err := rows.Scan(&rec.Signature, &rec.EventIndex, &slot, &rec.Receiver, &amount); err != nil {
			return nil, err
		}
		rec.Slot = uint64(slot)
		if rec.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (db *BridgeDB) queryBurns(query string, arg string) ([]BurnRecord, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []BurnRecord
	for rows.Next() {
		var (
			rec              BurnRecord
			slot             int64
			amount, operator string
		)
		if err := rows.Scan(&rec.Signature, &rec.EventIndex, &slot, &rec.Sender, &rec.BtcAddr, &amount, &operator); err != nil {
			return nil, err
		}
		rec.Slot = uint64(slot)
		if rec.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, err
		}
		if rec.OperatorID, err = strconv.ParseUint(operator, 10, 64); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
