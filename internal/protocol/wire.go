package protocol

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// QueryToStruct encodes a query shape for the gRPC transport.
func QueryToStruct(q Query) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(q.Map())
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return s, nil
}

func StructToQuery(s *structpb.Struct) (Query, error) {
	return ParseQuery(s.AsMap())
}

func BatchToStruct(b Batch) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(b.Map())
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	return s, nil
}

func StructToBatch(s *structpb.Struct) (Batch, error) {
	return ParseBatch(s.AsMap())
}

func ResultToStruct(r Result) (*structpb.Struct, error) {
	m, _ := Normalize(map[string]any(r)).(map[string]any)
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return s, nil
}

func StructToResult(s *structpb.Struct) Result {
	return Result(s.AsMap())
}
