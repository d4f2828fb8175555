// Package engine runs the transformation pipeline.
//
// A run annotates the source rows, links them into a forest, flattens every
// top-level record into contexts, maps every context through the rules and
// finally collapses the mapped records by their composite keys:
//
//	e, err := engine.New(doc, engine.Options{Workers: 4})
//	if err != nil {
//		return err
//	}
//
//	res, err := e.Run(ctx, data)
//	if err != nil {
//		return err
//	}
//
//	for _, sheet := range res.Sheets {
//		write(sheet.Name, sheet.Table())
//	}
//
// An Engine is immutable after New and may run concurrently.
package engine
