package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meridianlabs/identity-api/internal/core/domain"
)

const userCollection = "users"

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

type mongoUser struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	Email                 string             `bson:"email"`
	FirstName             string             `bson:"first_name,omitempty"`
	LastName              string             `bson:"last_name,omitempty"`
	PasswordHash          string             `bson:"password_hash,omitempty"`
	Role                  string             `bson:"role"`
	IsEmailVerified       bool               `bson:"is_email_verified"`
	HasLocalCredential    bool               `bson:"has_local_credential"`
	OAuthProvider         string             `bson:"oauth_provider,omitempty"`
	OAuthSubject          string             `bson:"oauth_subject,omitempty"`
	Avatar                string             `bson:"avatar,omitempty"`
	RefreshTokenHashes    []string           `bson:"refresh_token_hashes"`
	VerificationTokenHash string             `bson:"verification_token_hash,omitempty"`
	VerificationExpiresAt int64              `bson:"verification_expires_at,omitempty"`
	ResetTokenHash        string             `bson:"reset_token_hash,omitempty"`
	ResetExpiresAt        int64              `bson:"reset_expires_at,omitempty"`
	CreatedAt             int64              `bson:"created_at"`
	UpdatedAt             int64              `bson:"updated_at"`
}

// EnsureIndexes creates the indexes the repository's invariants rely on:
// the unique email index backs the duplicate-registration conflict, and the
// partial oauth index keeps (provider, subject) unique across linked accounts.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "oauth_provider", Value: 1}, {Key: "oauth_subject", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"oauth_subject": bson.M{"$exists": true}},
			),
		},
		{Keys: bson.D{{Key: "verification_token_hash", Value: 1}}},
		{Keys: bson.D{{Key: "reset_token_hash", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	doc := mongoUser{
		Email:              user.Email,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		PasswordHash:       user.PasswordHash,
		Role:               user.Role,
		IsEmailVerified:    user.IsEmailVerified,
		HasLocalCredential: user.HasLocalCredential,
		OAuthProvider:      user.OAuthProvider,
		OAuthSubject:       user.OAuthSubject,
		Avatar:             user.Avatar,
		RefreshTokenHashes: []string{},
		CreatedAt:          now.Unix(),
		UpdatedAt:          now.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return toDomain(&doc), nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByOAuth(ctx context.Context, provider, subject string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"oauth_provider": provider, "oauth_subject": subject})
}

func (r *MongoUserRepository) List(ctx context.Context, offset, limit int64) ([]*domain.User, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSkip(offset).
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, 0, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, toDomain(&mu))
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

func (r *MongoUserRepository) UpdateRole(ctx context.Context, id, role string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC().Unix()}})
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash":        passwordHash,
		"has_local_credential": true,
		"updated_at":           time.Now().UTC().Unix(),
	}})
}

func (r *MongoUserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"is_email_verified": true,
		"updated_at":        time.Now().UTC().Unix(),
	}})
}

func (r *MongoUserRepository) LinkOAuth(ctx context.Context, id, provider, subject, avatar string) error {
	set := bson.M{
		"oauth_provider": provider,
		"oauth_subject":  subject,
		"updated_at":     time.Now().UTC().Unix(),
	}
	if avatar != "" {
		set["avatar"] = avatar
	}
	return r.updateByID(ctx, id, bson.M{"$set": set})
}

func (r *MongoUserRepository) AppendRefreshToken(ctx context.Context, id, tokenHash string) error {
	return r.updateByID(ctx, id, bson.M{
		"$push": bson.M{"refresh_token_hashes": tokenHash},
		"$set":  bson.M{"updated_at": time.Now().UTC().Unix()},
	})
}

// SwapRefreshToken replaces oldHash with newHash in one conditional write.
// The positional operator only fires when oldHash is still a member, which
// serializes concurrent rotations of the same token: exactly one wins.
func (r *MongoUserRepository) SwapRefreshToken(ctx context.Context, id, oldHash, newHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidToken
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "refresh_token_hashes": oldHash},
		bson.M{"$set": bson.M{
			"refresh_token_hashes.$": newHash,
			"updated_at":             time.Now().UTC().Unix(),
		}},
	)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidToken
	}
	return nil
}

func (r *MongoUserRepository) ClearRefreshTokens(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"refresh_token_hashes": []string{},
		"updated_at":           time.Now().UTC().Unix(),
	}})
}

func (r *MongoUserRepository) SetOneTimeToken(ctx context.Context, id string, purpose domain.OneTimePurpose, tokenHash string, expiresAt time.Time) error {
	hashField, expField := oneTimeFields(purpose)
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		hashField:    tokenHash,
		expField:     expiresAt.Unix(),
		"updated_at": time.Now().UTC().Unix(),
	}})
}

// ConsumeOneTimeToken matches the stored hash and a live expiry, clearing
// both in the same write. A replayed token misses the filter.
func (r *MongoUserRepository) ConsumeOneTimeToken(ctx context.Context, purpose domain.OneTimePurpose, tokenHash string, now time.Time) (*domain.User, error) {
	hashField, expField := oneTimeFields(purpose)

	var mu mongoUser
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{hashField: tokenHash, expField: bson.M{"$gt": now.Unix()}},
		bson.M{
			"$unset": bson.M{hashField: "", expField: ""},
			"$set":   bson.M{"updated_at": now.Unix()},
		},
	).Decode(&mu)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("consume one-time token: %w", err)
	}
	return toDomain(&mu), nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomain(&mu), nil
}

func (r *MongoUserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func oneTimeFields(purpose domain.OneTimePurpose) (hashField, expField string) {
	if purpose == domain.PurposePasswordReset {
		return "reset_token_hash", "reset_expires_at"
	}
	return "verification_token_hash", "verification_expires_at"
}

func toDomain(mu *mongoUser) *domain.User {
	return &domain.User{
		ID:                 mu.ID.Hex(),
		Email:              mu.Email,
		FirstName:          mu.FirstName,
		LastName:           mu.LastName,
		PasswordHash:       mu.PasswordHash,
		Role:               mu.Role,
		IsEmailVerified:    mu.IsEmailVerified,
		HasLocalCredential: mu.HasLocalCredential,
		OAuthProvider:      mu.OAuthProvider,
		OAuthSubject:       mu.OAuthSubject,
		Avatar:             mu.Avatar,
		CreatedAt:          unixToTime(mu.CreatedAt),
		UpdatedAt:          unixToTime(mu.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
