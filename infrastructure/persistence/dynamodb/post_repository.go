package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"hirenest/application/ports"
	"hirenest/domain/core/entities"
	pkgerrors "hirenest/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PostRepository implements ports.PostRepository. Posts are indexed per
// author on GSI1 so a feed is a fan-out of per-author queries.
type PostRepository struct {
	client Client
	table  Table
	logger *zap.Logger
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(client Client, table Table, logger *zap.Logger) *PostRepository {
	return &PostRepository{client: client, table: table, logger: logger}
}

var _ ports.PostRepository = (*PostRepository)(nil)

type commentItem struct {
	CommentID string `dynamodbav:"CommentID"`
	Content   string `dynamodbav:"Content"`
	UserID    string `dynamodbav:"UserID"`
	CreatedAt string `dynamodbav:"CreatedAt"`
}

type postItem struct {
	PK         string        `dynamodbav:"PK"`
	SK         string        `dynamodbav:"SK"`
	GSI1PK     string        `dynamodbav:"GSI1PK"`
	GSI1SK     string        `dynamodbav:"GSI1SK"`
	EntityType string        `dynamodbav:"EntityType"`
	PostID     string        `dynamodbav:"PostID"`
	AuthorID   string        `dynamodbav:"AuthorID"`
	Content    string        `dynamodbav:"Content"`
	Image      string        `dynamodbav:"Image"`
	Likes      []string      `dynamodbav:"Likes"`
	Comments   []commentItem `dynamodbav:"Comments"`
	Version    int           `dynamodbav:"Version"`
	CreatedAt  string        `dynamodbav:"CreatedAt"`
	UpdatedAt  string        `dynamodbav:"UpdatedAt"`
}

func toPostItem(p *entities.Post) postItem {
	comments := make([]commentItem, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, commentItem{
			CommentID: c.ID,
			Content:   c.Content,
			UserID:    c.UserID,
			CreatedAt: formatTime(c.CreatedAt),
		})
	}
	likes := p.Likes
	if likes == nil {
		likes = []string{}
	}
	return postItem{
		PK:         postPK(p.ID),
		SK:         skPost,
		GSI1PK:     authorGSI(p.AuthorID),
		GSI1SK:     formatTime(p.CreatedAt) + "#" + p.ID,
		EntityType: entityPost,
		PostID:     p.ID,
		AuthorID:   p.AuthorID,
		Content:    p.Content,
		Image:      p.Image,
		Likes:      likes,
		Comments:   comments,
		Version:    p.Version,
		CreatedAt:  formatTime(p.CreatedAt),
		UpdatedAt:  formatTime(p.UpdatedAt),
	}
}

func (i postItem) toEntity() *entities.Post {
	comments := make([]entities.Comment, 0, len(i.Comments))
	for _, c := range i.Comments {
		comments = append(comments, entities.Comment{
			ID:        c.CommentID,
			Content:   c.Content,
			UserID:    c.UserID,
			CreatedAt: parseTime(c.CreatedAt),
		})
	}
	likes := i.Likes
	if likes == nil {
		likes = []string{}
	}
	return &entities.Post{
		ID:        i.PostID,
		AuthorID:  i.AuthorID,
		Content:   i.Content,
		Image:     i.Image,
		Likes:     likes,
		Comments:  comments,
		Version:   i.Version,
		CreatedAt: parseTime(i.CreatedAt),
		UpdatedAt: parseTime(i.UpdatedAt),
	}
}

// Create stores a new post
func (r *PostRepository) Create(ctx context.Context, post *entities.Post) error {
	av, err := attributevalue.MarshalMap(toPostItem(post))
	if err != nil {
		return fmt.Errorf("failed to marshal post: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table.Name),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewConflictError("post already exists")
		}
		return pkgerrors.NewDatabaseError("create post", err)
	}
	return nil
}

// GetByID retrieves a post
func (r *PostRepository) GetByID(ctx context.Context, id string) (*entities.Post, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table.Name),
		Key:            itemKey(postPK(id), skPost),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get post", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("Post")
	}

	var item postItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post: %w", err)
	}
	return item.toEntity(), nil
}

// Update replaces the post when its stored Version still equals
// expectedVersion, then advances post.Version.
func (r *PostRepository) Update(ctx context.Context, post *entities.Post, expectedVersion int) error {
	next := *post
	next.Version = expectedVersion + 1

	av, err := attributevalue.MarshalMap(toPostItem(&next))
	if err != nil {
		return fmt.Errorf("failed to marshal post: %w", err)
	}

	cond := expression.Name("Version").Equal(expression.Value(expectedVersion))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.table.Name),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			if _, getErr := r.GetByID(ctx, post.ID); pkgerrors.IsNotFound(getErr) {
				return getErr
			}
			return pkgerrors.NewConflictError("post was modified concurrently").
				WithCode(ports.CodeConcurrentModification)
		}
		return pkgerrors.NewDatabaseError("update post", err)
	}

	post.Version = next.Version
	return nil
}

// Delete removes a post
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table.Name),
		Key:       itemKey(postPK(id), skPost),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete post", err)
	}
	return nil
}

// ListByAuthors queries each author's partition concurrently and merges the
// results newest first.
func (r *PostRepository) ListByAuthors(ctx context.Context, authorIDs []string, limit int) ([]*entities.Post, error) {
	if len(authorIDs) == 0 {
		return []*entities.Post{}, nil
	}

	results := make([][]*entities.Post, len(authorIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, authorID := range authorIDs {
		i, authorID := i, authorID
		g.Go(func() error {
			posts, err := r.listByAuthor(gctx, authorID, limit)
			if err != nil {
				return err
			}
			results[i] = posts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]*entities.Post, 0)
	for _, posts := range results {
		merged = append(merged, posts...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (r *PostRepository) listByAuthor(ctx context.Context, authorID string, limit int) ([]*entities.Post, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(authorGSI(authorID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table.Name),
		IndexName:                 aws.String(r.table.GSI1Index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}

	posts := make([]*entities.Post, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list posts", err)
		}

		var items []postItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal posts: %w", err)
		}
		for _, item := range items {
			posts = append(posts, item.toEntity())
		}
		if limit > 0 && len(posts) >= limit {
			break
		}
	}
	return posts, nil
}
