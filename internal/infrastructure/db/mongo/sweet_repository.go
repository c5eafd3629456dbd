package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const sweetsCollection = "sweets"

// SweetRepository implements ports.SweetRepository.
type SweetRepository struct {
	col *mongo.Collection
}

func NewSweetRepository(db *mongo.Database) *SweetRepository {
	return &SweetRepository{col: db.Collection(sweetsCollection)}
}

type mongoSweet struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Category    string             `bson:"category"`
	Price       float64            `bson:"price"`
	Quantity    int                `bson:"quantity"`
	Description string             `bson:"description,omitempty"`
	ImageURL    string             `bson:"imageUrl,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (m mongoSweet) toDomain() *domain.Sweet {
	return &domain.Sweet{
		ID:          m.ID.Hex(),
		Name:        m.Name,
		Category:    m.Category,
		Price:       m.Price,
		Quantity:    m.Quantity,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

// Create inserts a new sweet document.
func (r *SweetRepository) Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoSweet{
		ID:          primitive.NewObjectID(),
		Name:        s.Name,
		Category:    s.Category,
		Price:       s.Price,
		Quantity:    s.Quantity,
		Description: s.Description,
		ImageURL:    s.ImageURL,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert sweet: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SweetRepository) FindByID(ctx context.Context, id string) (*domain.Sweet, error) {
	oid, err := objectID(id, domain.ErrSweetNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoSweet
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("find sweet: %w", err)
	}
	return m.toDomain(), nil
}

// List returns one page sorted by _id, which follows insertion order.
func (r *SweetRepository) List(ctx context.Context, page, limit int) ([]*domain.Sweet, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(pageOffset(page, limit)).
		SetLimit(int64(limit))

	sweets, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count sweets: %w", err)
	}
	return sweets, total, nil
}

func (r *SweetRepository) Search(ctx context.Context, f ports.SearchSweetsFilter) ([]*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.find(ctx, searchFilter(f), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// pageOffset is the number of documents before page. It saturates instead
// of overflowing for very large pages.
func pageOffset(page, limit int) int64 {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt64
	}
	return int64((page - 1) * limit)
}

// searchFilter builds the conjunctive query. The name is matched literally.
func searchFilter(f ports.SearchSweetsFilter) bson.M {
	filter := bson.M{}
	if f.Name != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}
	return filter
}

// Replace overwrites the six editable fields. Empty optional fields are
// unset rather than kept.
func (r *SweetRepository) Replace(ctx context.Context, id string, s *domain.Sweet) (*domain.Sweet, error) {
	oid, err := objectID(id, domain.ErrSweetNotFound)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"name":      s.Name,
		"category":  s.Category,
		"price":     s.Price,
		"quantity":  s.Quantity,
		"updatedAt": s.UpdatedAt,
	}
	unset := bson.M{}
	if s.Description != "" {
		set["description"] = s.Description
	} else {
		unset["description"] = ""
	}
	if s.ImageURL != "" {
		set["imageUrl"] = s.ImageURL
	} else {
		unset["imageUrl"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, update)
}

func (r *SweetRepository) Delete(ctx context.Context, id string) (*domain.Sweet, error) {
	oid, err := objectID(id, domain.ErrSweetNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoSweet
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("delete sweet: %w", err)
	}
	return m.toDomain(), nil
}

// DecrementStock is a single conditional update: the document only matches
// while quantity >= qty. A miss is then told apart with an existence check,
// which cannot affect the outcome of the write.
func (r *SweetRepository) DecrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error) {
	oid, err := objectID(id, domain.ErrSweetNotFound)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid, "quantity": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"quantity": -qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	sweet, err := r.findOneAndUpdate(ctx, filter, update)
	if !errors.Is(err, domain.ErrSweetNotFound) {
		return sweet, err
	}
	return nil, r.missCause(ctx, oid, domain.ErrInsufficientStock)
}

// IncrementStock only matches while the new quantity still fits in an
// int64, so $inc can never overflow on the server.
func (r *SweetRepository) IncrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error) {
	oid, err := objectID(id, domain.ErrSweetNotFound)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid, "quantity": bson.M{"$lte": math.MaxInt64 - int64(qty)}}
	update := bson.M{
		"$inc": bson.M{"quantity": qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	sweet, err := r.findOneAndUpdate(ctx, filter, update)
	if !errors.Is(err, domain.ErrSweetNotFound) {
		return sweet, err
	}
	return nil, r.missCause(ctx, oid, domain.ErrStockOverflow)
}

// missCause explains a conditional update that matched nothing: the sweet
// is gone, or it exists and the condition failed.
func (r *SweetRepository) missCause(ctx context.Context, oid primitive.ObjectID, existing error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check sweet: %w", err)
	}
	if n == 0 {
		return domain.ErrSweetNotFound
	}
	return existing
}

// EnsureIndexes creates the indexes used by search.
func (r *SweetRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "category", Value: "text"}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *SweetRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Sweet, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find sweets: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoSweet
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sweets: %w", err)
	}

	out := make([]*domain.Sweet, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *SweetRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoSweet
	if err := r.col.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("update sweet: %w", err)
	}
	return m.toDomain(), nil
}
