// Package churn scores customer records for churn risk. It reproduces the
// feature transformation fitted at training time (median/mode imputation,
// standardization, one-hot encoding, fixed column order) and applies the
// trained logistic model to the result.
//
// Quick start:
//
//	c := churn.Open("artifacts/v2.1.0")
//	preds, err := c.Predict(ctx, []churn.Record{{
//	    Tenure:       churn.Int(3),
//	    ContractType: churn.String("month-to-month"),
//	}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(preds[0].Probability, preds[0].Label)
//
// Artifacts load lazily on the first non-empty Predict call and are cached
// for the life of the Churn value. A Churn is safe for concurrent use.
package churn
