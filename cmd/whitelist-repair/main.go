package main

import (
	"context"
	"flag"
	"log"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wtreehq/merkletree/pkg/config"
	"github.com/wtreehq/merkletree/pkg/kvstore"
	"github.com/wtreehq/merkletree/pkg/objectstore"
	"github.com/wtreehq/merkletree/pkg/treelifecycle"
	"github.com/wtreehq/merkletree/pkg/types"
)

var (
	whitelistName = flag.String("whitelist", "", "Name of the whitelist whose root row is stuck")
	dryRun        = flag.Bool("dry-run", false, "Report the stuck row without changing it")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Whitelist Root Row Repair Tool")
	log.Println("==============================")

	if *whitelistName == "" {
		log.Fatalf("-whitelist is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	objStore, err := objectstore.New(ctx, cfg.BucketName)
	if err != nil {
		log.Fatalf("Failed to connect to object store: %v", err)
	}

	rootsStore, err := kvstore.New(ctx, cfg.RootsTableName)
	if err != nil {
		log.Fatalf("Failed to connect to roots table: %v", err)
	}

	proofsStore, err := kvstore.New(ctx, cfg.ProofsTableName)
	if err != nil {
		log.Fatalf("Failed to connect to proofs table: %v", err)
	}

	orchestrator := treelifecycle.New(objStore, rootsStore, proofsStore)

	log.Printf("Whitelist: %s", *whitelistName)
	log.Printf("Dry run: %v", *dryRun)

	item, err := rootsStore.GetItem(ctx, rootsKey(*whitelistName))
	if err != nil {
		log.Fatalf("Failed to read root row: %v", err)
	}

	var record types.RootRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		log.Fatalf("Failed to unmarshal root row: %v", err)
	}
	log.Printf("Current status: %s (root=%s)", record.WhitelistStatus, record.MerkleRoot)

	if *dryRun {
		if record.WhitelistStatus == types.StatusCreating || record.WhitelistStatus == types.StatusDeleting {
			log.Println("Row is stuck; re-run without -dry-run to force it to FAILED.")
		} else {
			log.Println("Row is not stuck; ForceFail would refuse it.")
		}
		return
	}

	if err := orchestrator.ForceFail(ctx, *whitelistName); err != nil {
		log.Fatalf("Repair failed: %v", err)
	}

	log.Println("✓ Root row forced to FAILED successfully")
}

func rootsKey(whitelistName string) kvstore.Item {
	return kvstore.Item{
		"WhitelistName": &ddbtypes.AttributeValueMemberS{Value: whitelistName},
	}
}
