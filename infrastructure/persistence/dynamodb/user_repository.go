package dynamodb

import (
	"context"
	"fmt"

	"hirenest/application/ports"
	"hirenest/domain/core/entities"
	pkgerrors "hirenest/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// UserRepository implements ports.UserRepository using DynamoDB. Username and
// email uniqueness is held by claim items written in the same transaction as
// the profile item.
type UserRepository struct {
	client Client
	table  Table
	logger *zap.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(client Client, table Table, logger *zap.Logger) *UserRepository {
	return &UserRepository{client: client, table: table, logger: logger}
}

var _ ports.UserRepository = (*UserRepository)(nil)

// userItem represents the DynamoDB item structure for a user
type userItem struct {
	PK             string                `dynamodbav:"PK"`
	SK             string                `dynamodbav:"SK"`
	EntityType     string                `dynamodbav:"EntityType"`
	UserID         string                `dynamodbav:"UserID"`
	Name           string                `dynamodbav:"Name"`
	Username       string                `dynamodbav:"Username"`
	Email          string                `dynamodbav:"Email"`
	PasswordHash   string                `dynamodbav:"PasswordHash"`
	ProfilePicture string                `dynamodbav:"ProfilePicture"`
	CoverPicture   string                `dynamodbav:"CoverPicture"`
	Headline       string                `dynamodbav:"Headline"`
	Location       string                `dynamodbav:"Location"`
	About          string                `dynamodbav:"About"`
	Skills         []string              `dynamodbav:"Skills"`
	Experience     []entities.Experience `dynamodbav:"Experience"`
	Education      []entities.Education  `dynamodbav:"Education"`
	Socials        entities.Socials      `dynamodbav:"Socials"`
	Resume         string                `dynamodbav:"Resume"`
	Connections    []string              `dynamodbav:"Connections,stringset,omitempty"`
	Followers      []string              `dynamodbav:"Followers,stringset,omitempty"`
	Following      []string              `dynamodbav:"Following,stringset,omitempty"`
	CreatedAt      string                `dynamodbav:"CreatedAt"`
	UpdatedAt      string                `dynamodbav:"UpdatedAt"`
}

type claimItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
}

func toUserItem(u *entities.User) userItem {
	return userItem{
		PK:             userPK(u.ID),
		SK:             skProfile,
		EntityType:     entityUser,
		UserID:         u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		ProfilePicture: u.ProfilePicture,
		CoverPicture:   u.CoverPicture,
		Headline:       u.Headline,
		Location:       u.Location,
		About:          u.About,
		Skills:         u.Skills,
		Experience:     u.Experience,
		Education:      u.Education,
		Socials:        u.Socials,
		Resume:         u.Resume,
		Connections:    u.Connections,
		Followers:      u.Followers,
		Following:      u.Following,
		CreatedAt:      formatTime(u.CreatedAt),
		UpdatedAt:      formatTime(u.UpdatedAt),
	}
}

func (i userItem) toEntity() *entities.User {
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	u := &entities.User{
		ID:             i.UserID,
		Name:           i.Name,
		Username:       i.Username,
		Email:          i.Email,
		PasswordHash:   i.PasswordHash,
		ProfilePicture: i.ProfilePicture,
		CoverPicture:   i.CoverPicture,
		Headline:       i.Headline,
		Location:       i.Location,
		About:          i.About,
		Skills:         nonNil(i.Skills),
		Experience:     i.Experience,
		Education:      i.Education,
		Socials:        i.Socials,
		Resume:         i.Resume,
		Connections:    nonNil(i.Connections),
		Followers:      nonNil(i.Followers),
		Following:      nonNil(i.Following),
		CreatedAt:      parseTime(i.CreatedAt),
		UpdatedAt:      parseTime(i.UpdatedAt),
	}
	if u.Experience == nil {
		u.Experience = []entities.Experience{}
	}
	if u.Education == nil {
		u.Education = []entities.Education{}
	}
	return u
}

func (r *UserRepository) claimPut(pk, userID string) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(claimItem{PK: pk, SK: skClaim, EntityType: entityClaim, UserID: userID})
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(r.table.Name),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	}, nil
}

// Create persists a new user with its username and email claims
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	av, err := attributevalue.MarshalMap(toUserItem(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	usernameClaim, err := r.claimPut(usernamePK(user.Username), user.ID)
	if err != nil {
		return fmt.Errorf("failed to marshal username claim: %w", err)
	}
	emailClaim, err := r.claimPut(emailPK(user.Email), user.ID)
	if err != nil {
		return fmt.Errorf("failed to marshal email claim: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.table.Name),
				Item:                av,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			usernameClaim,
			emailClaim,
		},
	})
	if err != nil {
		codes := cancellationReasons(err)
		switch {
		case conditionFailedAt(codes, 2):
			return pkgerrors.NewConflictError("Email already exists").WithCode(ports.CodeEmailTaken)
		case conditionFailedAt(codes, 1):
			return pkgerrors.NewConflictError("Username already exists").WithCode(ports.CodeUsernameTaken)
		}
		return pkgerrors.NewDatabaseError("create user", err)
	}

	r.logger.Debug("User created", zap.String("userID", user.ID))
	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table.Name),
		Key:            itemKey(userPK(id), skProfile),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get user", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("User")
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return item.toEntity(), nil
}

func (r *UserRepository) resolveClaim(ctx context.Context, pk string) (*entities.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table.Name),
		Key:       itemKey(pk, skClaim),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get claim", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("User")
	}

	var claim claimItem
	if err := attributevalue.UnmarshalMap(out.Item, &claim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal claim: %w", err)
	}
	return r.GetByID(ctx, claim.UserID)
}

// GetByUsername retrieves a user by unique handle
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.resolveClaim(ctx, usernamePK(username))
}

// GetByEmail retrieves a user by unique contact address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.resolveClaim(ctx, emailPK(email))
}

// GetByIDs batch-loads users, preserving the order of ids
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}

	// BatchGetItem accepts at most 100 keys per call
	const batchSize = 100
	found := make(map[string]*entities.User, len(ids))

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	for start := 0; start < len(unique); start += batchSize {
		end := start + batchSize
		if end > len(unique) {
			end = len(unique)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range unique[start:end] {
			keys = append(keys, itemKey(userPK(id), skProfile))
		}

		request := map[string]types.KeysAndAttributes{
			r.table.Name: {Keys: keys},
		}
		for len(request) > 0 {
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, pkgerrors.NewDatabaseError("batch get users", err)
			}

			var items []userItem
			if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.table.Name], &items); err != nil {
				return nil, fmt.Errorf("failed to unmarshal users: %w", err)
			}
			for _, item := range items {
				found[item.UserID] = item.toEntity()
			}
			request = out.UnprocessedKeys
		}
	}

	users := make([]*entities.User, 0, len(found))
	for _, id := range unique {
		if u, ok := found[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// UpdateProfile writes profile fields, moving the username claim when the
// handle changed. Edge sets and credentials are not touched.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *entities.User, previousUsername string) error {
	update := expression.
		Set(expression.Name("Name"), expression.Value(user.Name)).
		Set(expression.Name("Username"), expression.Value(user.Username)).
		Set(expression.Name("ProfilePicture"), expression.Value(user.ProfilePicture)).
		Set(expression.Name("CoverPicture"), expression.Value(user.CoverPicture)).
		Set(expression.Name("Headline"), expression.Value(user.Headline)).
		Set(expression.Name("Location"), expression.Value(user.Location)).
		Set(expression.Name("About"), expression.Value(user.About)).
		Set(expression.Name("Skills"), expression.Value(user.Skills)).
		Set(expression.Name("Experience"), expression.Value(user.Experience)).
		Set(expression.Name("Education"), expression.Value(user.Education)).
		Set(expression.Name("Socials"), expression.Value(user.Socials)).
		Set(expression.Name("Resume"), expression.Value(user.Resume)).
		Set(expression.Name("UpdatedAt"), expression.Value(formatTime(user.UpdatedAt)))
	cond := expression.AttributeExists(expression.Name("PK"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	profileUpdate := types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(r.table.Name),
			Key:                       itemKey(userPK(user.ID), skProfile),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
	}

	items := []types.TransactWriteItem{profileUpdate}
	usernameChanged := usernamePK(user.Username) != usernamePK(previousUsername)
	if usernameChanged {
		newClaim, err := r.claimPut(usernamePK(user.Username), user.ID)
		if err != nil {
			return fmt.Errorf("failed to marshal username claim: %w", err)
		}
		items = append(items, newClaim, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName:           aws.String(r.table.Name),
				Key:                 itemKey(usernamePK(previousUsername), skClaim),
				ConditionExpression: aws.String("UserID = :uid"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":uid": &types.AttributeValueMemberS{Value: user.ID},
				},
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		codes := cancellationReasons(err)
		switch {
		case conditionFailedAt(codes, 0):
			return pkgerrors.NewNotFoundError("User")
		case usernameChanged && conditionFailedAt(codes, 1):
			return pkgerrors.NewConflictError("Username already exists").WithCode(ports.CodeUsernameTaken)
		}
		return pkgerrors.NewDatabaseError("update user", err)
	}
	return nil
}

// ListSuggestions scans user items, skipping excluded ids, until limit users
// are collected.
func (r *UserRepository) ListSuggestions(ctx context.Context, exclude []string, limit int) ([]*entities.User, error) {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	filter := expression.Name("EntityType").Equal(expression.Value(entityUser))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter expression: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.table.Name),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	users := make([]*entities.User, 0, limit)
	for paginator.HasMorePages() && len(users) < limit {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan users", err)
		}

		var items []userItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal users: %w", err)
		}
		for _, item := range items {
			if _, excluded := skip[item.UserID]; excluded {
				continue
			}
			users = append(users, item.toEntity())
			if len(users) == limit {
				break
			}
		}
	}
	return users, nil
}
