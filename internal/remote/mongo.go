package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"habitquest/internal/model"
)

const defaultTimeout = 10 * time.Second

// Mongo is the MongoDB backed Store. Collection documents carry the same
// field names as the local rows; users additionally keep appliedEvents.
type Mongo struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	logger  *slog.Logger
}

type MongoOptions struct {
	URI      string
	Database string
	Timeout  time.Duration
	Logger   *slog.Logger
}

func Connect(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(timeout).
		SetTimeout(timeout))
	if err != nil {
		return nil, classify(fmt.Errorf("connect: %w", err))
	}
	m := &Mongo{client: client, db: client.Database(opts.Database), timeout: timeout, logger: logger}

	ictx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := m.ensureIndexes(ictx); err != nil {
		// Offline at startup is fine; every call reports ErrUnavailable.
		logger.Warn("Remote indexes not ensured", slog.String("type", "sync"), slog.Any("error", err))
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	for _, coll := range []Collection{Tasks, Categories, Equipment} {
		_, err := m.coll(coll).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "ownerId", Value: 1}}})
		if err != nil {
			return classify(err)
		}
	}
	_, err := m.coll(Bosses).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return classify(err)
}

func (m *Mongo) coll(c Collection) *mongo.Collection { return m.db.Collection(string(c)) }

func (m *Mongo) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

// classify maps driver errors onto ErrNotFound and ErrUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	}
	var sel topology.ServerSelectionError
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.As(err, &sel) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (m *Mongo) GetUser(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	var u model.User
	if err := m.coll(Users).FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func literal(v any) bson.D { return bson.D{{Key: "$literal", Value: v}} }

func maxOf(field string, v any) bson.D {
	return bson.D{{Key: "$max", Value: bson.A{"$" + field, literal(v)}}}
}

// MergeUser runs one pipeline upsert so concurrent writers never lower a
// counter or drop a badge.
func (m *Mongo) MergeUser(ctx context.Context, u model.User) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	badges := u.UnlockedBadgeIDs
	if badges == nil {
		badges = []string{}
	}
	unlockedAt := u.BadgeUnlockedAt
	if unlockedAt == nil {
		unlockedAt = map[string]int64{}
	}
	var alliance any = "$$REMOVE"
	if u.AllianceID != "" {
		alliance = literal(u.AllianceID)
	}
	localIsNewer := bson.D{{Key: "$gte", Value: bson.A{
		literal(u.LastCompletionDay),
		bson.D{{Key: "$ifNull", Value: bson.A{"$lastCompletionDay", 0}}},
	}}}

	set := bson.D{
		{Key: "username", Value: literal(u.Username)},
		{Key: "email", Value: literal(u.Email)},
		{Key: "experiencePoints", Value: maxOf("experiencePoints", u.ExperiencePoints)},
		{Key: "level", Value: maxOf("level", u.Level)},
		{Key: "powerPoints", Value: maxOf("powerPoints", u.PowerPoints)},
		{Key: "tasksCompleted", Value: maxOf("tasksCompleted", u.TasksCompleted)},
		{Key: "bossesDefeated", Value: maxOf("bossesDefeated", u.BossesDefeated)},
		{Key: "specialMissionsCompleted", Value: maxOf("specialMissionsCompleted", u.SpecialMissionsCompleted)},
		{Key: "longestStreak", Value: maxOf("longestStreak", u.LongestStreak)},
		{Key: "currentStreak", Value: bson.D{{Key: "$cond", Value: bson.A{localIsNewer, literal(u.CurrentStreak), "$currentStreak"}}}},
		{Key: "lastCompletionDay", Value: maxOf("lastCompletionDay", u.LastCompletionDay)},
		{Key: "allianceId", Value: alliance},
		{Key: "unlockedBadgeIds", Value: bson.D{{Key: "$setUnion", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$unlockedBadgeIds", bson.A{}}}},
			literal(badges),
		}}}},
		{Key: "badgeUnlockedAt", Value: bson.D{{Key: "$mergeObjects", Value: bson.A{
			literal(unlockedAt),
			bson.D{{Key: "$ifNull", Value: bson.A{"$badgeUnlockedAt", bson.D{}}}},
		}}}},
		{Key: "createdAt", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$createdAt", literal(u.CreatedAt)}}}},
		{Key: "updatedAt", Value: maxOf("updatedAt", u.UpdatedAt)},
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	_, err := m.coll(Users).UpdateOne(ctx, bson.M{"_id": u.ID}, pipeline, options.Update().SetUpsert(true))
	if err != nil {
		return classify(fmt.Errorf("merge user: %w", err))
	}
	return nil
}

func (m *Mongo) ApplyDelta(ctx context.Context, userID string, d Delta) (bool, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	inc := bson.M{
		"experiencePoints":         d.XP,
		"powerPoints":              d.PP,
		"tasksCompleted":           d.TasksCompleted,
		"bossesDefeated":           d.BossesDefeated,
		"specialMissionsCompleted": d.SpecialMissions,
	}
	maxes := bson.M{"level": d.Level, "updatedAt": d.UpdatedAt}
	set := bson.M{}
	if s := d.Streak; s != nil {
		set["currentStreak"] = s.Current
		set["lastCompletionDay"] = s.LastDay
		maxes["longestStreak"] = s.Longest
	}
	update := bson.M{
		"$inc": inc,
		"$max": maxes,
		"$push": bson.M{"appliedEvents": bson.M{
			"$each":  bson.A{d.EventID},
			"$slice": -MaxAppliedEvents,
		}},
	}
	if d.AllianceID != nil {
		if *d.AllianceID == "" {
			update["$unset"] = bson.M{"allianceId": ""}
		} else {
			set["allianceId"] = *d.AllianceID
		}
	}
	if len(set) > 0 {
		update["$set"] = set
	}

	filter := bson.M{"_id": userID, "appliedEvents": bson.M{"$ne": d.EventID}}
	res, err := m.coll(Users).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, classify(fmt.Errorf("apply delta: %w", err))
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := m.coll(Users).CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return false, classify(err)
	}
	if n == 0 {
		return false, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	m.logger.DebugContext(ctx, "Delta already applied", slog.String("type", "sync"), slog.String("event_id", d.EventID))
	return false, nil
}

// GrantBadges adds ids with one atomic find-and-modify and diffs against the
// document as it was before, so concurrent grants never report the same id
// twice.
func (m *Mongo) GrantBadges(ctx context.Context, userID string, ids []string, at int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	var before struct {
		UnlockedBadgeIDs []string `bson:"unlockedBadgeIds"`
	}
	err := m.coll(Users).FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"unlockedBadgeIds": bson.M{"$each": ids}}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.Before).
			SetProjection(bson.M{"unlockedBadgeIds": 1}),
	).Decode(&before)
	if err != nil {
		return nil, classify(fmt.Errorf("grant badges: %w", err))
	}

	had := make(map[string]struct{}, len(before.UnlockedBadgeIDs))
	for _, id := range before.UnlockedBadgeIDs {
		had[id] = struct{}{}
	}
	var granted []string
	stamps := bson.M{}
	for _, id := range ids {
		if _, ok := had[id]; ok {
			continue
		}
		had[id] = struct{}{}
		granted = append(granted, id)
		stamps["badgeUnlockedAt."+id] = at
	}
	if len(stamps) > 0 {
		if _, err := m.coll(Users).UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": stamps}); err != nil {
			m.logger.WarnContext(ctx, "Badge timestamps not stored", slog.String("type", "sync"), slog.Any("error", err))
		}
	}
	return granted, nil
}

func (m *Mongo) DeleteUser(ctx context.Context, id string) error {
	return m.Delete(ctx, Users, id)
}

func (m *Mongo) save(ctx context.Context, coll Collection, id string, doc any) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	_, err := m.coll(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return classify(fmt.Errorf("save %s %s: %w", coll, id, err))
	}
	return nil
}

func (m *Mongo) SaveTask(ctx context.Context, t model.Task) error {
	return m.save(ctx, Tasks, t.ID, t)
}

func (m *Mongo) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	return list[model.Task](ctx, m, Tasks, ownerID)
}

func (m *Mongo) SaveCategory(ctx context.Context, c model.Category) error {
	return m.save(ctx, Categories, c.ID, c)
}

func (m *Mongo) ListCategories(ctx context.Context, ownerID string) ([]model.Category, error) {
	return list[model.Category](ctx, m, Categories, ownerID)
}

func (m *Mongo) SaveItem(ctx context.Context, e model.Equipment) error {
	return m.save(ctx, Equipment, e.ID, e)
}

func (m *Mongo) ListItems(ctx context.Context, ownerID string) ([]model.Equipment, error) {
	return list[model.Equipment](ctx, m, Equipment, ownerID)
}

func (m *Mongo) SaveBoss(ctx context.Context, b model.Boss) error {
	return m.save(ctx, Bosses, b.ID, b)
}

func (m *Mongo) GetBoss(ctx context.Context, ownerID string) (*model.Boss, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	var b model.Boss
	if err := m.coll(Bosses).FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&b); err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

func (m *Mongo) Delete(ctx context.Context, coll Collection, id string) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	if _, err := m.coll(coll).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return classify(fmt.Errorf("delete %s %s: %w", coll, id, err))
	}
	return nil
}

func (m *Mongo) DeleteOwned(ctx context.Context, coll Collection, ownerID string) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	res, err := m.coll(coll).DeleteMany(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return classify(fmt.Errorf("delete %s of %s: %w", coll, ownerID, err))
	}
	m.logger.DebugContext(ctx, "Deleted owned documents",
		slog.String("type", "sync"),
		slog.String("collection", string(coll)),
		slog.Int64("count", res.DeletedCount))
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func list[T any](ctx context.Context, m *Mongo, coll Collection, ownerID string) ([]T, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	cur, err := m.coll(coll).Find(ctx, bson.M{"ownerId": ownerID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, classify(fmt.Errorf("list %s: %w", coll, err))
	}
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, classify(fmt.Errorf("decode %s: %w", coll, err))
	}
	return out, nil
}

var (
	_ Store = (*Mongo)(nil)
	_ Store = (*Memory)(nil)
)
