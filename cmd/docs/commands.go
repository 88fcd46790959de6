package docs

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	insertCmd = &cobra.Command{
		Use:   "insert [connection-id] [database] [collection] [document]",
		Short: "Insert a JSON document",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := bridgeClient.Collection(args[0], args[1], args[2])
			id, err := coll.InsertOne([]byte(args[3]))
			if err != nil {
				return err
			}
			fmt.Printf("inserted id=%s\n", id)
			return nil
		},
	}
	findCmd = &cobra.Command{
		Use:   "find [connection-id] [database] [collection] [filter]",
		Short: "Find the first document matching a JSON filter",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := bridgeClient.Collection(args[0], args[1], args[2])
			doc, found, err := coll.FindOne([]byte(args[3]))
			if err != nil {
				return err
			}
			fmt.Printf("found=%v, doc=%s\n", found, doc)
			return nil
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [connection-id] [database] [collection] [filter] [update]",
		Short: "Update the first document matching a JSON filter",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := bridgeClient.Collection(args[0], args[1], args[2])
			res, err := coll.UpdateOne([]byte(args[3]), []byte(args[4]))
			if err != nil {
				return err
			}
			fmt.Printf("matched=%d, modified=%d\n", res.Matched, res.Modified)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [connection-id] [database] [collection] [filter]",
		Short: "Delete the first document matching a JSON filter",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := bridgeClient.Collection(args[0], args[1], args[2])
			deleted, err := coll.DeleteOne([]byte(args[3]))
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%d\n", deleted)
			return nil
		},
	}
	findManyLimit int64

	findManyCmd = &cobra.Command{
		Use:   "find-many [connection-id] [database] [collection] [filter]",
		Short: "Find every document matching a JSON filter",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := bridgeClient.Collection(args[0], args[1], args[2])
			var filter []byte
			if len(args) == 4 {
				filter = []byte(args[3])
			}
			docs, err := coll.Find(filter, findManyLimit)
			if err != nil {
				return err
			}
			fmt.Printf("found=%d\n", len(docs))
			for _, doc := range docs {
				fmt.Println(string(doc))
			}
			return nil
		},
	}
	insertManyCmd = &cobra.Command{
		Use:   "insert-many [connection-id] [database] [collection] [document...]",
		Short: "Insert a batch of JSON documents",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := bridgeClient.Collection(args[0], args[1], args[2])
			documents := make([][]byte, 0, len(args)-3)
			for _, doc := range args[3:] {
				documents = append(documents, []byte(doc))
			}
			ids, err := coll.InsertMany(documents)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Printf("inserted id=%s\n", id)
			}
			return nil
		},
	}
	updateManyCmd = &cobra.Command{
		Use:   "update-many [connection-id] [database] [collection] [filter] [update]",
		Short: "Update every document matching a JSON filter",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := bridgeClient.Collection(args[0], args[1], args[2])
			res, err := coll.UpdateMany([]byte(args[3]), []byte(args[4]))
			if err != nil {
				return err
			}
			fmt.Printf("matched=%d, modified=%d\n", res.Matched, res.Modified)
			return nil
		},
	}
	deleteManyCmd = &cobra.Command{
		Use:   "delete-many [connection-id] [database] [collection] [filter]",
		Short: "Delete every document matching a JSON filter",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := bridgeClient.Collection(args[0], args[1], args[2])
			deleted, err := coll.DeleteMany([]byte(args[3]))
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%d\n", deleted)
			return nil
		},
	}
	countCmd = &cobra.Command{
		Use:   "count [connection-id] [database] [collection] [filter]",
		Short: "Count the documents matching a JSON filter",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := bridgeClient.Collection(args[0], args[1], args[2])
			var filter []byte
			if len(args) == 4 {
				filter = []byte(args[3])
			}
			count, err := coll.CountDocuments(filter)
			if err != nil {
				return err
			}
			fmt.Printf("count=%d\n", count)
			return nil
		},
	}
)

func init() {
	findManyCmd.Flags().Int64Var(&findManyLimit, "limit", 0, "maximum number of documents to return (0 = no limit)")
}
