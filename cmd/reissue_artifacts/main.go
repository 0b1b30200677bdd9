package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-credentials/internal/app"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/delivery"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
)

func main() {
	var dryRun bool
	var reuseExisting bool
	var limit int
	flag.BoolVar(&dryRun, "dry-run", false, "print credentials missing an artifact without regenerating")
	flag.BoolVar(&reuseExisting, "reuse-existing", false, "attach an artifact already present in the bucket instead of re-rendering")
	flag.IntVar(&limit, "limit", 100, "maximum number of credentials processed")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	rows, err := application.Repos.Credential.ListMissingArtifact(dbc, limit)
	if err != nil {
		fmt.Printf("list credentials missing artifacts: %v\n", err)
		os.Exit(1)
	}

	repaired, failed := 0, 0
	for _, cred := range rows {
		if cred == nil || cred.LearnerID == uuid.Nil {
			continue
		}
		if dryRun {
			fmt.Printf("would reissue credential=%s learner=%s type=%s\n", cred.CredentialID, cred.LearnerID, cred.AchievementType)
			continue
		}
		if reuseExisting {
			ok, err := attachExisting(ctx, application, cred)
			if err != nil {
				fmt.Printf("credential=%s reuse check failed: %v\n", cred.CredentialID, err)
			}
			if ok {
				repaired++
				fmt.Printf("credential=%s attached existing artifact\n", cred.CredentialID)
				continue
			}
		}

		res, err := application.Services.Coordinator.RequestGeneration(ctx, cred.LearnerID, cred.AchievementRef, cred.AchievementType)
		if err != nil {
			failed++
			fmt.Printf("credential=%s error: %v\n", cred.CredentialID, err)
			continue
		}
		if res.Success && res.ArtifactURL != "" {
			repaired++
		} else {
			failed++
		}
		fmt.Printf("credential=%s code=%s url=%s %s\n", cred.CredentialID, res.Code, res.ArtifactURL, res.Error)
	}

	if dryRun {
		fmt.Printf("dry run: %d credentials missing artifacts\n", len(rows))
		return
	}
	fmt.Printf("done: repaired=%d failed=%d\n", repaired, failed)
	if failed > 0 {
		application.Close()
		os.Exit(2)
	}
}

func attachExisting(ctx context.Context, application *app.App, cred *types.Credential) (bool, error) {
	bucket := application.Clients.Bucket
	key := delivery.ArtifactKey(cred.LearnerID, cred.CredentialID)
	exists, err := bucket.Exists(ctx, key)
	if err != nil || !exists {
		return false, err
	}
	if err := application.Repos.Credential.AttachArtifact(dbctx.Context{Ctx: ctx}, cred.CredentialID, bucket.PublicURL(key), key); err != nil {
		return false, err
	}
	return true, nil
}
