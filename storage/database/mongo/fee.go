package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/fee"
)

type paymentDoc struct {
	ID            string    `bson:"id"`
	Amount        float64   `bson:"amount"`
	Date          time.Time `bson:"date"`
	Method        string    `bson:"method"`
	TransactionID string    `bson:"transactionId"`
	Remarks       string    `bson:"remarks"`
}

type feeDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	StudentID    string             `bson:"studentId"`
	BranchID     string             `bson:"branchId"`
	TotalAmount  float64            `bson:"totalAmount"`
	PaidAmount   float64            `bson:"paidAmount"`
	DueAmount    float64            `bson:"dueAmount"`
	Payments     []paymentDoc       `bson:"payments"`
	AcademicYear string             `bson:"academicYear"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func newFeeDoc(f fee.Fee) feeDoc {
	doc := feeDoc{
		ID:           objectID(f.ID),
		StudentID:    f.StudentID,
		BranchID:     f.BranchID,
		TotalAmount:  f.TotalAmount,
		PaidAmount:   f.PaidAmount,
		DueAmount:    f.DueAmount,
		Payments:     make([]paymentDoc, 0, len(f.Payments)),
		AcademicYear: f.AcademicYear,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
	for _, p := range f.Payments {
		doc.Payments = append(doc.Payments, paymentDoc(p))
	}
	return doc
}

// toFee recomputes the amounts from the payment history.
func (d feeDoc) toFee() fee.Fee {
	f := fee.Fee{
		ID:           d.ID.Hex(),
		StudentID:    d.StudentID,
		BranchID:     d.BranchID,
		TotalAmount:  d.TotalAmount,
		Payments:     make([]fee.Payment, 0, len(d.Payments)),
		AcademicYear: d.AcademicYear,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	for _, p := range d.Payments {
		p.Date = p.Date.UTC()
		f.Payments = append(f.Payments, fee.Payment(p))
	}
	f.Recompute()
	return f
}

type feeRepository struct {
	repo
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *mongo.Database, conf *core.Config) fee.Repository {
	return &feeRepository{repo: newRepo(db, FeesColl, conf)}
}

func (r *feeRepository) Create(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	for i := range f.Payments {
		if f.Payments[i].ID == "" {
			f.Payments[i].ID = primitive.NewObjectID().Hex()
		}
	}
	f.Recompute()
	doc := newFeeDoc(f)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if dupKey(err) != "" {
			return fee.Fee{}, fee.ErrAccountExists
		}
		return fee.Fee{}, errors.Wrap(err, "inserting fee")
	}
	return doc.toFee(), nil
}

func (r *feeRepository) GetByStudent(ctx context.Context, studentID string) (fee.Fee, error) {
	var doc feeDoc
	if err := r.findOne(ctx, bson.M{"studentId": studentID}, &doc, fee.ErrNotFound); err != nil {
		return fee.Fee{}, err
	}
	return doc.toFee(), nil
}

func (r *feeRepository) Query(ctx context.Context, filter fee.Filter) ([]fee.Fee, error) {
	query := bson.M{}
	if filter.BranchID != "" {
		query["branchId"] = filter.BranchID
	}
	if filter.StudentIDs != nil {
		query["studentId"] = bson.M{"$in": filter.StudentIDs}
	}

	var docs []feeDoc
	if err := r.find(ctx, query, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}, &docs); err != nil {
		return nil, err
	}
	fees := make([]fee.Fee, 0, len(docs))
	for _, doc := range docs {
		fees = append(fees, doc.toFee())
	}
	return fees, nil
}

// AddPayment pushes the payment and moves the amounts in one update, so concurrent payments never lose each other.
func (r *feeRepository) AddPayment(ctx context.Context, feeID string, p fee.Payment) (fee.Fee, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p.ID = primitive.NewObjectID().Hex()
	update := bson.M{
		"$push": bson.M{"payments": paymentDoc(p)},
		"$inc":  bson.M{"paidAmount": p.Amount, "dueAmount": -p.Amount},
		"$set":  bson.M{"updatedAt": p.Date},
	}

	var doc feeDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": objectID(feeID)}, update, updateAfter()).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return fee.Fee{}, fee.ErrNotFound
	}
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "adding payment")
	}
	return doc.toFee(), nil
}
