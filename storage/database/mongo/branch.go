package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
)

type feeStructureDoc struct {
	TotalFee   float64 `bson:"totalFee"`
	TuitionFee float64 `bson:"tuitionFee"`
	ExamFee    float64 `bson:"examFee"`
	LabFee     float64 `bson:"labFee"`
	OtherFee   float64 `bson:"otherFee"`
}

type branchDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Code         string             `bson:"code"`
	Description  string             `bson:"description"`
	Duration     string             `bson:"duration"`
	TotalSeats   int                `bson:"totalSeats"`
	FeeStructure feeStructureDoc    `bson:"feeStructure"`
	Subjects     []string           `bson:"subjects"`
	IsActive     bool               `bson:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func newBranchDoc(b branch.Branch) branchDoc {
	return branchDoc{
		ID:           objectID(b.ID),
		Name:         b.Name,
		Code:         b.Code,
		Description:  b.Description,
		Duration:     b.Duration,
		TotalSeats:   b.TotalSeats,
		FeeStructure: feeStructureDoc(b.FeeStructure),
		Subjects:     b.Subjects,
		IsActive:     b.IsActive,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func (d branchDoc) toBranch() branch.Branch {
	subjects := d.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return branch.Branch{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Code:         d.Code,
		Description:  d.Description,
		Duration:     d.Duration,
		TotalSeats:   d.TotalSeats,
		FeeStructure: branch.FeeStructure(d.FeeStructure),
		Subjects:     subjects,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type branchRepository struct {
	repo
}

var _ branch.Repository = (*branchRepository)(nil)

func NewBranchRepository(db *mongo.Database, conf *core.Config) branch.Repository {
	return &branchRepository{repo: newRepo(db, BranchesColl, conf)}
}

func (r *branchRepository) Create(ctx context.Context, b branch.Branch) (branch.Branch, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := newBranchDoc(b)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if dupKey(err) != "" {
			return branch.Branch{}, branch.ErrCodeExists
		}
		return branch.Branch{}, errors.Wrap(err, "inserting branch")
	}
	return doc.toBranch(), nil
}

func (r *branchRepository) Get(ctx context.Context, id string) (branch.Branch, error) {
	var doc branchDoc
	if err := r.findOne(ctx, bson.M{"_id": objectID(id)}, &doc, branch.ErrNotFound); err != nil {
		return branch.Branch{}, err
	}
	return doc.toBranch(), nil
}

func (r *branchRepository) GetByCode(ctx context.Context, code string) (branch.Branch, error) {
	var doc branchDoc
	if err := r.findOne(ctx, bson.M{"code": code}, &doc, branch.ErrNotFound); err != nil {
		return branch.Branch{}, err
	}
	return doc.toBranch(), nil
}

func (r *branchRepository) Query(ctx context.Context, filter branch.QueryFilter) ([]branch.Branch, error) {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["isActive"] = true
	}
	var docs []branchDoc
	if err := r.find(ctx, query, bson.D{{Key: "name", Value: 1}}, &docs); err != nil {
		return nil, err
	}
	branches := make([]branch.Branch, 0, len(docs))
	for _, doc := range docs {
		branches = append(branches, doc.toBranch())
	}
	return branches, nil
}

func (r *branchRepository) Update(ctx context.Context, b branch.Branch) (branch.Branch, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := newBranchDoc(b)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		if dupKey(err) != "" {
			return branch.Branch{}, branch.ErrCodeExists
		}
		return branch.Branch{}, errors.Wrap(err, "updating branch")
	}
	if res.MatchedCount == 0 {
		return branch.Branch{}, branch.ErrNotFound
	}
	return doc.toBranch(), nil
}
