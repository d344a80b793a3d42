package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/notargets/govlm/VLM/solver"
)

// RunRecord is one solve
type RunRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"uniqueIndex"`
	CaseName  string `gorm:"index"`
	CreatedAt time.Time

	Mach, Alpha, Beta float64
	Sref, Cref, Bref  float64
	NLoops            int

	CL, CDi, CS   float64
	CFx, CFy, CFz float64
	CMx, CMy, CMz float64

	SpanLoads []SpanLoadRecord `gorm:"constraint:OnDelete:CASCADE"`
}

// SpanLoadRecord is one span station of one vortex sheet of a run
type SpanLoadRecord struct {
	ID          uint `gorm:"primaryKey"`
	RunRecordID uint `gorm:"index"`

	Sheet, Station int
	ComponentID    int
	S, Chord, Area float64
	Cl, Cd         float64
}

type Results struct {
	DB *gorm.DB
}

// OpenResults opens or creates the sqlite results database at path
func OpenResults(path string, verbose bool) (r *Results, err error) {
	if err = os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("results directory: %w", err)
	}
	level := gormlogger.Silent
	if verbose {
		level = gormlogger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("opening results database %s: %w", path, err)
	}
	if err = db.AutoMigrate(&RunRecord{}, &SpanLoadRecord{}); err != nil {
		return nil, fmt.Errorf("migrating results database %s: %w", path, err)
	}
	return &Results{DB: db}, nil
}

func (r *Results) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func NewRunRecord(caseName string, res *solver.Result) (rec *RunRecord) {
	p, c := res.Parameters, res.Coefficients
	rec = &RunRecord{
		RunID:    res.RunID.String(),
		CaseName: caseName,
		NLoops:   len(res.Gamma),
		Mach:     p.Mach, Alpha: p.Alpha, Beta: p.Beta,
		Sref: p.Sref, Cref: p.Cref, Bref: p.Bref,
		CL: c.CL, CDi: c.CDi, CS: c.CS,
		CFx: c.CFx, CFy: c.CFy, CFz: c.CFz,
		CMx: c.CMx, CMy: c.CMy, CMz: c.CMz,
	}
	for sheet := range res.SpanLoads {
		for k := 1; k < len(res.SpanLoads[sheet]); k++ {
			sd := &res.SpanLoads[sheet][k]
			if sd.Area == 0 {
				continue
			}
			rec.SpanLoads = append(rec.SpanLoads, SpanLoadRecord{
				Sheet: sheet, Station: k, ComponentID: sd.ComponentID,
				S: sd.S, Chord: sd.Chord, Area: sd.Area,
				Cl: sd.Cl, Cd: sd.Cd,
			})
		}
	}
	return
}

// SaveRun stores a run with its span loads
func (r *Results) SaveRun(caseName string, res *solver.Result) (rec *RunRecord, err error) {
	rec = NewRunRecord(caseName, res)
	if err = r.DB.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("saving run %s: %w", rec.RunID, err)
	}
	return
}

func (r *Results) Run(runID string) (rec *RunRecord, err error) {
	rec = &RunRecord{}
	err = r.DB.Preload("SpanLoads", func(db *gorm.DB) *gorm.DB {
		return db.Order("sheet, station")
	}).Where("run_id = ?", runID).First(rec).Error
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return
}

// Runs lists the runs of a case, oldest first, without their span loads
func (r *Results) Runs(caseName string) (recs []RunRecord, err error) {
	if err = r.DB.Where("case_name = ?", caseName).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing runs of %s: %w", caseName, err)
	}
	return
}

func (r *Results) DeleteRun(runID string) error {
	rec, err := r.Run(runID)
	if err != nil {
		return err
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_record_id = ?", rec.ID).Delete(&SpanLoadRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(rec).Error
	})
}
