package payout

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/raffnet/raffle-node/internal/db"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Rail moves the pool to the winner. Credit must either fully apply or fully fail,
// settlement relies on that to stay all-or-nothing.
type Rail interface {
	Credit(recipient common.Address, amount uint64) error
}

// LedgerRail keeps custody in a local account ledger instead of an ambient chain
// balance, so settlement and tests need no real payment rail.
type LedgerRail struct {
	dbm *db.DatabaseManager
}

var _ Rail = (*LedgerRail)(nil)

func NewLedgerRail(dbm *db.DatabaseManager) *LedgerRail {
	return &LedgerRail{dbm: dbm}
}

func (r *LedgerRail) Credit(recipient common.Address, amount uint64) error {
	return r.dbm.GetLedgerDB().Transaction(func(tx *gorm.DB) error {
		var account db.Account
		err := tx.Where("address = ?", recipient.Hex()).First(&account).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			account = db.Account{
				Address: recipient.Hex(),
				Balance: 0,
			}
		}

		account.Balance += amount
		account.UpdatedAt = time.Now()
		if err := tx.Save(&account).Error; err != nil {
			return err
		}

		log.Infof("Ledger credit, recipient %s, amount %d, balance %d", recipient.Hex(), amount, account.Balance)
		return nil
	})
}

// BalanceOf returns 0 for addresses that were never credited.
func (r *LedgerRail) BalanceOf(address common.Address) (uint64, error) {
	var account db.Account
	err := r.dbm.GetLedgerDB().Where("address = ?", address.Hex()).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}
