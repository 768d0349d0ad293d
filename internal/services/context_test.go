package services_test

import (
	"context"
	"testing"

	"marquee/internal/services"
)

func TestTeamRoundTrip(t *testing.T) {
	ctx := services.WithTeam(context.Background(), "alpha")
	team, ok := services.TeamFromContext(ctx)
	if !ok || team != "alpha" {
		t.Fatalf("expected team alpha, got %q ok=%v", team, ok)
	}
}

func TestEmptyValuesNotStored(t *testing.T) {
	ctx := services.WithTrigger(context.Background(), "")
	if _, ok := services.TriggerFromContext(ctx); ok {
		t.Fatal("expected empty trigger to be absent")
	}
	if _, ok := services.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected run id absent on bare context")
	}
}
