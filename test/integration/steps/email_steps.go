package steps

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	"github.com/realtyhub/backend/internal/integration/adapters"
	"github.com/realtyhub/backend/internal/integration/persistence"
	"github.com/realtyhub/backend/internal/integration/persistence/model"
)

// registerEmailSteps registers queue, provider and clock steps.
func registerEmailSteps(ctx *godog.ScenarioContext) {
	// Setup
	ctx.Given(`^a user exists with email "([^"]*)"$`, aUserExistsWithEmail)
	ctx.Given(`^the email provider fails the next (\d+) requests? with status (\d+)$`, theEmailProviderFailsTheNextRequests)
	ctx.Given(`^the email provider rejects the next request as invalid$`, theEmailProviderRejectsTheNextRequestAsInvalid)

	// Time and background work
	ctx.When(`^(\d+) (second|seconds|minute|minutes) pass(?:es)?$`, timePasses)
	ctx.When(`^background tasks have finished$`, backgroundTasksHaveFinished)

	// Assertions
	ctx.Then(`^the db should contain (\d+) objects in the "([^"]*)" table$`, theDbShouldContainObjectsInTheTable)
	ctx.Then(`^the email queue should contain (\d+) jobs? with status "([^"]*)"$`, theEmailQueueShouldContainJobsWithStatus)
	ctx.Then(`^the email provider should have received (\d+) requests?$`, theEmailProviderShouldHaveReceivedRequests)
	ctx.Then(`^email (\d+) should be sent to "([^"]*)"$`, emailShouldBeSentTo)
	ctx.Then(`^email (\d+) should have subject containing "([^"]*)"$`, emailShouldHaveSubjectContaining)
	ctx.Then(`^the queued jobs should have (\d+) "([^"]*)" events?$`, theQueuedJobsShouldHaveEvents)
}

func aUserExistsWithEmail(ctx context.Context, email string) error {
	tc := GetTestContext(ctx)
	user := entity.NewUser(email, "Test Agent", "unused-hash", entity.UserRoleAgent)
	return persistence.NewAccountRepository(tc.db.DbConn).Create(ctx, user)
}

func iAmAuthenticatedAs(ctx context.Context, email string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}
	token, err := adapters.NewAccessTokens(testJWTSecret).Issue(adapter.AccessClaims{
		UserID: uuid.New(),
		Email:  email,
		Role:   entity.UserRoleAgent,
	}, time.Hour)
	if err != nil {
		return ctx, err
	}
	tc.accessToken = token
	return ctx, nil
}

func theEmailProviderFailsTheNextRequests(ctx context.Context, n, status int) error {
	GetTestContext(ctx).resend.FailNext(n, status, map[string]any{
		"statusCode": status,
		"name":       "application_error",
		"message":    "Something went wrong",
	})
	return nil
}

func theEmailProviderRejectsTheNextRequestAsInvalid(ctx context.Context) error {
	GetTestContext(ctx).resend.FailNext(1, http.StatusUnprocessableEntity, map[string]any{
		"statusCode": http.StatusUnprocessableEntity,
		"name":       "validation_error",
		"message":    "Invalid `to` field",
	})
	return nil
}

func timePasses(ctx context.Context, amount int, unit string) error {
	d := time.Duration(amount) * time.Second
	if strings.HasPrefix(unit, "minute") {
		d = time.Duration(amount) * time.Minute
	}
	GetTestContext(ctx).clock.Advance(d)
	return nil
}

func backgroundTasksHaveFinished(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return GetTestContext(ctx).injector.Tasks.Wait(waitCtx)
}

func theDbShouldContainObjectsInTheTable(ctx context.Context, expected int, table string) error {
	var count int64
	if err := GetTestContext(ctx).db.DbConn.Table(table).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != expected {
		return fmt.Errorf("expected %d rows in %s, got %d", expected, table, count)
	}
	return nil
}

func theEmailQueueShouldContainJobsWithStatus(ctx context.Context, expected int, status string) error {
	var count int64
	err := GetTestContext(ctx).db.DbConn.Model(&model.EmailJobModel{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return err
	}
	if int(count) != expected {
		return fmt.Errorf("expected %d %s jobs, got %d", expected, status, count)
	}
	return nil
}

func theEmailProviderShouldHaveReceivedRequests(ctx context.Context, expected int) error {
	if actual := GetTestContext(ctx).resend.RequestCount(); actual != expected {
		return fmt.Errorf("expected %d provider requests, got %d", expected, actual)
	}
	return nil
}

func sentEmail(ctx context.Context, n int) (map[string]any, error) {
	body := GetTestContext(ctx).resend.GetRequestBody(n - 1)
	if body == nil {
		return nil, fmt.Errorf("email %d was not sent", n)
	}
	return body, nil
}

func emailShouldBeSentTo(ctx context.Context, n int, address string) error {
	body, err := sentEmail(ctx, n)
	if err != nil {
		return err
	}
	to, _ := body["to"].([]any)
	for _, recipient := range to {
		if recipient == address {
			return nil
		}
	}
	return fmt.Errorf("email %d was sent to %v, not %s", n, body["to"], address)
}

func emailShouldHaveSubjectContaining(ctx context.Context, n int, fragment string) error {
	body, err := sentEmail(ctx, n)
	if err != nil {
		return err
	}
	subject, _ := body["subject"].(string)
	if !strings.Contains(subject, fragment) {
		return fmt.Errorf("email %d subject %q does not contain %q", n, subject, fragment)
	}
	return nil
}

func theQueuedJobsShouldHaveEvents(ctx context.Context, expected int, event string) error {
	var count int64
	err := GetTestContext(ctx).db.DbConn.Model(&model.EmailEventModel{}).
		Where("event = ?", event).
		Count(&count).Error
	if err != nil {
		return err
	}
	if int(count) != expected {
		return fmt.Errorf("expected %d %s events, got %d", expected, event, count)
	}
	return nil
}
