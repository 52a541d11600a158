package repository

import "go.mongodb.org/mongo-driver/mongo/options"

func findOneAndUpdateReturnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
